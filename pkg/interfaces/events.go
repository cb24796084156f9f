// Package interfaces 定义 ElemFlow 公共接口
//
// 本文件定义元素事件管理接口。
package interfaces

import (
	"github.com/elemflow/go-elemflow/pkg/types"
)

// ============================================================================
//                              回调类型
// ============================================================================

// UnsubscribeFunc 取消订阅函数
//
// 幂等；在分发过程中调用不影响当前这一轮投递。
type UnsubscribeFunc func()

// EventHandler 单事件订阅回调
type EventHandler func(types.ElementEvent)

// BatchHandler 批量订阅回调
//
// 一次 flush 中分发的全部事件作为一个有序组投递（可跨元素）。
type BatchHandler func([]types.ElementEvent)

// ValidateEventFunc 事件校验钩子
//
// 注入后在入队前调用；返回非 nil 错误则事件以 CodeValidation 被拒绝。
type ValidateEventFunc func(types.ElementEvent) error

// ============================================================================
//                              EventManager 接口
// ============================================================================

// EventManager 元素事件管理器
//
// 维护活跃元素注册表、优先级事件队列和分发循环。
// SendEvent 的受理语义是"已进入队列"，不保证已完成分发；
// 分发完成情况通过 History 观察。
type EventManager interface {
	// SendEvent 发送单个事件
	//
	// 元素未注册 → CodeNotFound；元素状态不允许（仅 active
	// 接受更新事件）→ CodeState；校验钩子失败 → CodeValidation；
	// 队列达到上限 → CodeOverflow（同步失败，绝不丢弃已入队事件）。
	SendEvent(event types.ElementEvent) types.EventResult

	// SendBatchEvents 批量发送事件
	//
	// 每个事件独立处理，单个失败不影响其他事件；
	// 结果对输入构成 successful/failed/queued 的 1:1 划分。
	SendBatchEvents(events []types.ElementEvent) types.BatchEventResult

	// DeliverRemote 远端事件注入入口
	//
	// 由传输桥接在收到入站事件时调用。
	DeliverRemote(event types.ElementEvent) types.EventResult

	// Subscribe 订阅指定元素的事件
	Subscribe(elementID string, cb EventHandler) UnsubscribeFunc

	// SubscribeToAll 订阅全部事件
	SubscribeToAll(cb EventHandler) UnsubscribeFunc

	// SubscribeToBatch 按 flush 批次订阅事件
	SubscribeToBatch(cb BatchHandler) UnsubscribeFunc

	// GetElement 查询注册表中的元素
	GetElement(id string) (types.Element, bool)

	// GetQueueStats 返回队列统计（总数与各优先级计数）
	GetQueueStats() types.QueueStats

	// History 返回已分发事件的历史（有界，先进先出淘汰）
	History() []types.HistoryEntry

	// Flush 立即执行一次分发（测试与关闭路径使用）
	Flush()

	// Close 停止分发循环
	Close() error
}

// ============================================================================
//                              ElementRegistry 接口
// ============================================================================

// ElementRegistry 元素注册表写入端
//
// 由 EventManager 实现，LifecycleManager 在注册/状态转换/销毁时调用。
// 注册表只在注册后填充，销毁时移除。
type ElementRegistry interface {
	// RegisterElement 将元素加入注册表
	RegisterElement(element types.Element)

	// SetElementState 同步元素的当前生命周期状态
	SetElementState(id string, state types.LifecycleState)

	// UnregisterElement 将元素移出注册表
	UnregisterElement(id string)
}
