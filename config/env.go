package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envPrefix 环境变量前缀
const envPrefix = "ELEMFLOW_"

// FromEnv 从环境变量加载配置
//
// 以默认配置为基础，应用 ELEMFLOW_ 前缀的环境变量覆盖，
// 例如 ELEMFLOW_QUEUE_MAX_SIZE、ELEMFLOW_QUEUE_FLUSH_INTERVAL、
// ELEMFLOW_TRANSPORT_SEND_TIMEOUT。
func FromEnv() (*Config, error) {
	cfg := NewConfig()
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse config from env: %w", err)
	}
	cfg.Validate()
	return cfg, nil
}
