package elemflow

import (
	"go.uber.org/zap"

	"github.com/elemflow/go-elemflow/config"
	"github.com/elemflow/go-elemflow/pkg/interfaces"
)

// ════════════════════════════════════════════════════════════════════════════
//                              选项
// ════════════════════════════════════════════════════════════════════════════

// systemConfig System 构建配置
type systemConfig struct {
	cfg      *config.Config
	fxLogger *zap.Logger
	resolver interfaces.ContentResolver
	caps     interfaces.Capabilities
	validate interfaces.ValidateEventFunc
	registry interfaces.TransportRegistry
}

// Option System 构建选项
type Option func(*systemConfig)

// WithConfig 使用指定配置
func WithConfig(cfg *config.Config) Option {
	return func(c *systemConfig) {
		c.cfg = cfg
	}
}

// WithFxLogger 设置 Fx 应用日志（默认静默）
func WithFxLogger(l *zap.Logger) Option {
	return func(c *systemConfig) {
		c.fxLogger = l
	}
}

// WithContentResolver 注入内容解析协作者
//
// UpdateElementContent 在提交转换前用它校验/归一化新内容。
func WithContentResolver(r interfaces.ContentResolver, caps interfaces.Capabilities) Option {
	return func(c *systemConfig) {
		c.resolver = r
		c.caps = caps
	}
}

// WithValidateEvent 注入事件校验钩子
func WithValidateEvent(fn interfaces.ValidateEventFunc) Option {
	return func(c *systemConfig) {
		c.validate = fn
	}
}

// WithTransportRegistry 使用外部传输注册表
//
// 不设置时构建预注册 mem scheme 的默认注册表。
func WithTransportRegistry(r interfaces.TransportRegistry) Option {
	return func(c *systemConfig) {
		c.registry = r
	}
}
