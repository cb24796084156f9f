package elemflow

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/elemflow/go-elemflow/internal/core/eventmanager"
	"github.com/elemflow/go-elemflow/internal/core/lifecycle"
	"github.com/elemflow/go-elemflow/internal/core/transport"
	"github.com/elemflow/go-elemflow/internal/core/transport/inmem"
	"github.com/elemflow/go-elemflow/pkg/interfaces"
)

// buildFxApp 构建 Fx 应用
//
// 组装顺序（按依赖）：
//  1. EventManager（提供元素注册表）
//  2. LifecycleManager（写入注册表）
//  3. TransportRegistry
func buildFxApp(cfg *systemConfig, sys *System) *fx.App {
	cfg.cfg.Validate()

	opts := []fx.Option{
		// ════════════════════════════════════════════════════════════════
		// 配置注入
		// ════════════════════════════════════════════════════════════════
		fx.Supply(eventmanager.Options{
			MaxQueueSize:      cfg.cfg.Queue.MaxQueueSize,
			FlushInterval:     cfg.cfg.Queue.FlushInterval,
			DeduplicateEvents: cfg.cfg.Queue.DeduplicateEvents,
			MaxHistorySize:    cfg.cfg.MaxHistorySize,
			ValidateEvent:     cfg.validate,
		}),

		// ════════════════════════════════════════════════════════════════
		// 核心模块
		// ════════════════════════════════════════════════════════════════
		eventmanager.Module(),
		lifecycle.Module(),
	}

	// 内容解析协作者（可选）
	if cfg.resolver != nil {
		resolver := cfg.resolver
		caps := cfg.caps
		opts = append(opts, fx.Supply(
			fx.Annotate(resolver, fx.As(new(interfaces.ContentResolver))),
		))
		opts = append(opts, fx.Supply(caps))
	}

	// 传输注册表：外部实例优先
	if cfg.registry != nil {
		registry := cfg.registry
		opts = append(opts, fx.Supply(
			fx.Annotate(registry, fx.As(new(interfaces.TransportRegistry))),
		))
	} else {
		opts = append(opts,
			fx.Supply(inmem.Options{
				ReconnectDelay: cfg.cfg.Transport.ReconnectDelay,
			}),
			transport.Module(),
		)
	}

	// ════════════════════════════════════════════════════════════════
	// 结果采集与日志
	// ════════════════════════════════════════════════════════════════
	opts = append(opts,
		fx.Populate(&sys.lifecycle, &sys.events, &sys.transports),
		fx.WithLogger(func() fxevent.Logger {
			if cfg.fxLogger != nil {
				return &fxevent.ZapLogger{Logger: cfg.fxLogger}
			}
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}),
	)

	return fx.New(opts...)
}
