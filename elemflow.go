package elemflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/elemflow/go-elemflow/config"
	"github.com/elemflow/go-elemflow/internal/core/eventmanager"
	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/lib/log"
	"github.com/elemflow/go-elemflow/pkg/types"
)

var logger = log.Logger("elemflow")

// ════════════════════════════════════════════════════════════════════════════
//                              版本信息
// ════════════════════════════════════════════════════════════════════════════

// Version 当前版本
const Version = "v0.1.0"

// ════════════════════════════════════════════════════════════════════════════
//                              System 门面
// ════════════════════════════════════════════════════════════════════════════

// defaultStartTimeout 启动/停止的缺省超时
const defaultStartTimeout = 15 * time.Second

// System ElemFlow 系统门面
//
// 用 Fx 组装 LifecycleManager、EventManager 与 TransportRegistry，
// 生命周期由 Start/Close 驱动。
type System struct {
	app *fx.App

	lifecycle  interfaces.LifecycleManager
	events     interfaces.EventManager
	transports interfaces.TransportRegistry

	// sendTimeout 出站转发的发送超时（取自 Transport 配置）
	sendTimeout time.Duration

	mu       sync.Mutex
	started  bool
	detaches []func()
}

// New 创建 System
//
// 未注入配置时使用默认配置。
func New(opts ...Option) (*System, error) {
	cfg := &systemConfig{cfg: config.NewConfig()}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.cfg.Validate()

	sys := &System{sendTimeout: cfg.cfg.Transport.SendTimeout}
	sys.app = buildFxApp(cfg, sys)
	if err := sys.app.Err(); err != nil {
		return nil, fmt.Errorf("assemble system: %w", err)
	}
	return sys, nil
}

// Start 启动系统
//
// 启动分发循环等内部组件；重复调用返回错误。
func (s *System) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("system already started")
	}
	s.started = true
	s.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	startCtx, cancel := context.WithTimeout(ctx, defaultStartTimeout)
	defer cancel()

	if err := s.app.Start(startCtx); err != nil {
		return fmt.Errorf("start system: %w", err)
	}
	logger.Info("system started", "version", Version)
	return nil
}

// Close 关闭系统
//
// 解除全部传输桥接并停止内部组件；幂等。
func (s *System) Close() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	detaches := s.detaches
	s.detaches = nil
	s.mu.Unlock()

	for _, detach := range detaches {
		detach()
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), defaultStartTimeout)
	defer cancel()
	return s.app.Stop(stopCtx)
}

// ════════════════════════════════════════════════════════════════════════════
//                              组件访问
// ════════════════════════════════════════════════════════════════════════════

// Lifecycle 返回生命周期管理器
func (s *System) Lifecycle() interfaces.LifecycleManager {
	return s.lifecycle
}

// Events 返回事件管理器
func (s *System) Events() interfaces.EventManager {
	return s.events
}

// Transports 返回传输注册表
func (s *System) Transports() interfaces.TransportRegistry {
	return s.transports
}

// ════════════════════════════════════════════════════════════════════════════
//                              传输桥接
// ════════════════════════════════════════════════════════════════════════════

// AttachTransport 桥接传输与事件管理器
//
// 出站：本地产生的事件经全局订阅转发到传输；
// 入站：传输收到的事件经 DeliverRemote 注入回事件管理器。
// 远端注入的事件（来源为 RemoteSource）不再回传，避免回声。
// 要求传输已连接；返回解除桥接函数，Close 时自动解除。
func (s *System) AttachTransport(t interfaces.Transport) (interfaces.UnsubscribeFunc, error) {
	inbound, err := t.SubscribeToAll(func(evt types.ElementEvent) {
		// 强制标记来源，入站事件不再被出站转发回声
		evt.Metadata.Source = eventmanager.RemoteSource
		res := s.events.DeliverRemote(evt)
		if !res.Accepted {
			logger.Warn("inbound event rejected",
				"element", evt.ElementID,
				"code", res.Code,
				"reason", res.Reason)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("attach transport: %w", err)
	}

	outbound := s.events.SubscribeToAll(func(evt types.ElementEvent) {
		if evt.Metadata.Source == eventmanager.RemoteSource {
			return
		}
		sendCtx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
		defer cancel()
		if err := t.SendEvent(sendCtx, evt); err != nil {
			logger.Warn("outbound forward failed",
				"element", evt.ElementID,
				"err", err)
		}
	})

	var once sync.Once
	detach := func() {
		once.Do(func() {
			inbound()
			outbound()
		})
	}

	s.mu.Lock()
	s.detaches = append(s.detaches, detach)
	s.mu.Unlock()
	return detach, nil
}

// ════════════════════════════════════════════════════════════════════════════
//                              便捷入口
// ════════════════════════════════════════════════════════════════════════════

// StartSystem 创建并启动 System
func StartSystem(ctx context.Context, opts ...Option) (*System, error) {
	sys, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := sys.Start(ctx); err != nil {
		return nil, multierr.Append(err, sys.Close())
	}
	return sys, nil
}
