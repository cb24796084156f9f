// Package config 提供统一的配置管理
package config

import "time"

// TransportConfig 传输配置
type TransportConfig struct {
	// SendTimeout 出站事件转发的发送超时
	// 默认值: 3s
	SendTimeout time.Duration `json:"send_timeout" env:"SEND_TIMEOUT"`

	// ReconnectDelay 瞬时故障后自主重连的延迟
	// 默认值: 50ms
	ReconnectDelay time.Duration `json:"reconnect_delay" env:"RECONNECT_DELAY"`
}

// DefaultTransportConfig 返回默认的传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		SendTimeout:    3 * time.Second,
		ReconnectDelay: 50 * time.Millisecond,
	}
}

// Validate 验证传输配置的有效性
//
// 修正无效值为默认值。
func (c *TransportConfig) Validate() {
	def := DefaultTransportConfig()
	if c.SendTimeout <= 0 {
		c.SendTimeout = def.SendTimeout
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = def.ReconnectDelay
	}
}
