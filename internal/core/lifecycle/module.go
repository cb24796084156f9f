// Package lifecycle 实现元素生命周期管理器
package lifecycle

import (
	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"go.uber.org/fx"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Lifecycle interfaces.LifecycleManager
}

// Params Fx 模块输入参数
type Params struct {
	fx.In

	Registry interfaces.ElementRegistry
	Resolver interfaces.ContentResolver `optional:"true"`
	Caps     interfaces.Capabilities    `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("lifecycle",
		fx.Provide(ProvideLifecycleManager),
	)
}

// ProvideLifecycleManager 提供 LifecycleManager 实例
func ProvideLifecycleManager(p Params) Result {
	m := NewManager(p.Registry)
	if p.Resolver != nil {
		m.SetContentResolver(p.Resolver, p.Caps)
	}
	return Result{Lifecycle: m}
}

// ============================================================================
//                              模块元信息
// ============================================================================

const (
	// Version 模块版本
	Version = "1.0.0"
	// Name 模块名称
	Name = "lifecycle"
	// Description 模块描述
	Description = "元素生命周期管理模块，提供状态机驱动的元素跟踪"
)
