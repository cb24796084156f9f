// Package config 提供统一的配置管理
//
// 主 Config 结构体嵌入所有子配置，每个子配置提供默认值与校验。
// 支持从环境变量加载覆盖（前缀 ELEMFLOW_）。
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Queue.DeduplicateEvents = false
//
//	// 从环境变量加载覆盖
//	cfg, err := config.FromEnv()
package config

// Config ElemFlow 的完整配置结构
type Config struct {
	// Queue 事件队列配置
	Queue QueueConfig `json:"queue" envPrefix:"QUEUE_"`

	// Transport 传输配置
	Transport TransportConfig `json:"transport" envPrefix:"TRANSPORT_"`

	// MaxHistorySize 分发历史容量
	// 默认值: 256
	MaxHistorySize int `json:"max_history_size" env:"MAX_HISTORY_SIZE"`

	// EnablePersistence 是否启用持久化
	// 当前核心中为占位开关，无实际行为
	// 默认值: false
	EnablePersistence bool `json:"enable_persistence" env:"ENABLE_PERSISTENCE"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	return &Config{
		Queue:          DefaultQueueConfig(),
		Transport:      DefaultTransportConfig(),
		MaxHistorySize: 256,
	}
}

// Validate 验证配置有效性
//
// 修正无效值为默认值（不会返回错误）。
func (c *Config) Validate() {
	c.Queue.Validate()
	c.Transport.Validate()
	if c.MaxHistorySize <= 0 {
		c.MaxHistorySize = 256
	}
}
