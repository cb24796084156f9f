// Package config 提供统一的配置管理
package config

import "time"

// QueueConfig 事件队列配置
type QueueConfig struct {
	// MaxQueueSize 队列容量上限，超出时发送同步失败
	// 默认值: 1024
	MaxQueueSize int `json:"max_queue_size" env:"MAX_SIZE"`

	// FlushInterval 分发循环的触发间隔
	// 默认值: 10ms
	FlushInterval time.Duration `json:"flush_interval" env:"FLUSH_INTERVAL"`

	// PriorityLevels 优先级数量
	// 固定四级：low/normal/high/immediate
	// 默认值: 4
	PriorityLevels int `json:"priority_levels" env:"PRIORITY_LEVELS"`

	// DeduplicateEvents 是否开启入队去重
	// 默认值: true
	DeduplicateEvents bool `json:"deduplicate_events" env:"DEDUPLICATE"`
}

// DefaultQueueConfig 返回默认的队列配置
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxQueueSize:      1024,
		FlushInterval:     10 * time.Millisecond,
		PriorityLevels:    4,
		DeduplicateEvents: true,
	}
}

// Validate 验证队列配置的有效性
//
// 修正无效值为默认值。
func (c *QueueConfig) Validate() {
	def := DefaultQueueConfig()
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = def.FlushInterval
	}
	if c.PriorityLevels != def.PriorityLevels {
		c.PriorityLevels = def.PriorityLevels
	}
}
