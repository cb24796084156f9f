// Package transport 实现传输注册表
package transport

import (
	"context"

	"go.uber.org/fx"

	"github.com/elemflow/go-elemflow/internal/core/transport/inmem"
	"github.com/elemflow/go-elemflow/pkg/interfaces"
)

// ============================================================================
//                              Fx 模块
// ============================================================================

// Result Fx 模块输出结果
type Result struct {
	fx.Out

	Registry interfaces.TransportRegistry
}

// Params Fx 模块输入参数
type Params struct {
	fx.In

	// Options mem scheme 传输实例的构建选项
	Options inmem.Options `optional:"true"`
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("transport",
		fx.Provide(ProvideRegistry),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 提供传输注册表实例
func ProvideRegistry(p Params) Result {
	return Result{Registry: NewDefaultRegistryWith(p.Options)}
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC       fx.Lifecycle
	Registry interfaces.TransportRegistry
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return input.Registry.Close()
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
	Name = "transport"
	// Description 模块描述
	Description = "传输注册表模块，按 scheme 创建并跟踪传输实例"
)
