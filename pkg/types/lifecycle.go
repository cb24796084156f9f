package types

import "time"

// ============================================================================
//                              LifecycleState - 生命周期状态
// ============================================================================

// LifecycleState 元素生命周期状态
//
// 状态机：
//
//	created → registered → active ⇄ suspended
//	active → updating → active | error
//	{registered, suspended, error} → active
//	任意非 destroyed 状态 → destroyed（终态）
type LifecycleState int

const (
	// StateCreated 已创建（尚未注册）
	StateCreated LifecycleState = iota

	// StateRegistered 已注册（对 EventManager 可见）
	StateRegistered

	// StateActive 活跃（可接收事件分发）
	StateActive

	// StateSuspended 已挂起（拒绝更新事件）
	StateSuspended

	// StateUpdating 更新中（内容更新期间的瞬态）
	StateUpdating

	// StateError 错误状态
	StateError

	// StateDestroyed 已销毁（终态）
	StateDestroyed
)

// String 返回状态的字符串表示
func (s LifecycleState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateUpdating:
		return "updating"
	case StateError:
		return "error"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Terminal 是否为终态
func (s LifecycleState) Terminal() bool {
	return s == StateDestroyed
}

// CanTransitionTo 检查是否允许转换到目标状态
func (s LifecycleState) CanTransitionTo(next LifecycleState) bool {
	// destroyed 是终态
	if s == StateDestroyed {
		return false
	}
	// 任意非终态都可以销毁
	if next == StateDestroyed {
		return true
	}

	switch s {
	case StateCreated:
		return next == StateRegistered
	case StateRegistered:
		return next == StateActive
	case StateActive:
		return next == StateSuspended || next == StateUpdating
	case StateSuspended:
		return next == StateActive
	case StateUpdating:
		return next == StateActive || next == StateError
	case StateError:
		return next == StateActive
	default:
		return false
	}
}

// ============================================================================
//                              LifecycleEvent - 生命周期事件
// ============================================================================

// LifecycleEventType 生命周期事件类型
type LifecycleEventType int

const (
	// LifecycleCreated 元素已创建
	LifecycleCreated LifecycleEventType = iota

	// LifecycleRegistered 元素已注册
	LifecycleRegistered

	// LifecycleActivated 元素已激活
	LifecycleActivated

	// LifecycleSuspended 元素已挂起
	LifecycleSuspended

	// LifecycleUpdating 元素更新中
	LifecycleUpdating

	// LifecycleError 元素进入错误状态
	LifecycleError

	// LifecycleDestroyed 元素已销毁
	LifecycleDestroyed
)

// String 返回事件类型的字符串表示
func (t LifecycleEventType) String() string {
	switch t {
	case LifecycleCreated:
		return "created"
	case LifecycleRegistered:
		return "registered"
	case LifecycleActivated:
		return "activated"
	case LifecycleSuspended:
		return "suspended"
	case LifecycleUpdating:
		return "updating"
	case LifecycleError:
		return "error"
	case LifecycleDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// LifecycleEvent 生命周期事件
//
// 每次状态转换恰好产生一个 LifecycleEvent，
// 按注册顺序同步投递给生命周期订阅者。
type LifecycleEvent struct {
	// ElementID 元素标识
	ElementID string

	// Type 事件类型
	Type LifecycleEventType

	// PreviousState 转换前状态
	PreviousState LifecycleState

	// NewState 转换后状态
	NewState LifecycleState

	// Timestamp 事件时间戳
	Timestamp time.Time
}

// ============================================================================
//                              LifecycleStats - 生命周期统计
// ============================================================================

// LifecycleStats 生命周期统计信息
//
// 各状态计数之和恒等于 Total。
type LifecycleStats struct {
	// Total 跟踪的元素总数
	Total int

	// PerState 各状态的元素计数
	PerState map[LifecycleState]int
}
