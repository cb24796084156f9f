// Package eventmanager 实现元素事件管理器
package eventmanager

import (
	"context"

	"go.uber.org/fx"

	"github.com/elemflow/go-elemflow/pkg/interfaces"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Events   interfaces.EventManager
	Registry interfaces.ElementRegistry
}

// Params Fx 模块输入参数
type Params struct {
	fx.In

	Options Options `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("eventmanager",
		fx.Provide(ProvideEventManager),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideEventManager 提供 EventManager 实例
func ProvideEventManager(p Params) Result {
	m := NewManager(p.Options)
	return Result{Events: m, Registry: m}
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC     fx.Lifecycle
	Events interfaces.EventManager
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if m, ok := input.Events.(*Manager); ok {
				m.Start()
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			return input.Events.Close()
		},
	})
}

// ============================================================================
//                              模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "eventmanager"
	// Description 模块描述
	Description = "元素事件管理模块，提供优先级队列、去重与分发循环"
)
