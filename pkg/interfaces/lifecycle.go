// Package interfaces 定义 ElemFlow 公共接口
//
// 本文件定义元素生命周期管理接口。
package interfaces

import (
	"context"

	"github.com/elemflow/go-elemflow/pkg/types"
)

// ============================================================================
//                              LifecycleManager 接口
// ============================================================================

// LifecycleSubscriber 生命周期事件订阅回调
type LifecycleSubscriber func(types.LifecycleEvent)

// LifecycleManager 元素生命周期管理器
//
// 每个元素在任意时刻恰有一个当前生命周期状态，
// 只能通过定义好的转换修改。针对同一 ID 的操作串行执行。
type LifecycleManager interface {
	// CreateElement 创建元素并开始跟踪
	//
	// ID 已被跟踪时返回 ErrDuplicateID。
	CreateElement(id string, kind types.ElementKind, content any, props map[string]any) (types.Element, error)

	// RegisterElement 注册元素：created → registered
	//
	// 元素不在 created 状态时返回状态错误。
	// 注册后元素对 EventManager 可见。
	RegisterElement(element types.Element) error

	// ActivateElement 激活元素：{registered, suspended, error} → active
	ActivateElement(id string) error

	// SuspendElement 挂起元素：active → suspended
	SuspendElement(id string) error

	// UpdateElementContent 更新元素内容
	//
	// 要求 active 状态；转换 active → updating → (成功 active | 失败 error)。
	// 元素已挂起/已销毁/不存在时立即返回 Success:false，不发生任何转换。
	UpdateElementContent(ctx context.Context, id string, partial any) types.OpResult

	// DestroyElement 销毁元素：任意非 destroyed 状态 → destroyed
	//
	// 终态；从 EventManager 注销；幂等（重复调用成功且不重复发出事件）。
	DestroyElement(id string) error

	// GetElementState 查询元素当前状态
	GetElementState(id string) (types.LifecycleState, bool)

	// GetLifecycleStats 返回各状态的元素计数
	//
	// 计数之和恒等于跟踪的元素总数。
	GetLifecycleStats() types.LifecycleStats

	// SubscribeToLifecycle 订阅生命周期事件
	//
	// 事件按订阅注册顺序同步投递；单个订阅者的 panic
	// 会被捕获并记录，不影响其余订阅者和触发操作本身。
	// 返回取消订阅函数。
	SubscribeToLifecycle(cb LifecycleSubscriber) UnsubscribeFunc
}

// ============================================================================
//                              内容解析协作者
// ============================================================================

// Capabilities 客户端能力声明
//
// 外部协作者用于在内容变体间做选择的偏好/限制，不属于本核心。
type Capabilities struct {
	// MaxBytes 可接受的最大载荷字节数（0 表示不限）
	MaxBytes int64

	// MIMETypes 可接受的 MIME 类型列表
	MIMETypes []string

	// PreferredVariant 偏好的内容变体
	PreferredVariant string
}

// ContentResolver 内容解析协作者
//
// 注入能力：给定载荷来源和客户端能力，返回归一化内容或错误。
// UpdateElementContent 在提交转换前调用它校验/归一化新内容。
type ContentResolver interface {
	// Resolve 解析并归一化内容
	Resolve(ctx context.Context, source any, caps Capabilities) (any, error)
}
