package types

import "time"

// ============================================================================
//                              操作结果
// ============================================================================

// OpResult 生命周期操作结果
//
// 对预期内的可恢复失败（目标不存在、状态不允许等）
// 以判定结果值返回，而不是通过错误控制流。
type OpResult struct {
	// Success 操作是否成功
	Success bool

	// Code 失败分类码（成功时为 CodeNone）
	Code ErrorCode

	// Reason 失败原因描述
	Reason string

	// NewState 操作完成后的元素状态
	NewState LifecycleState
}

// OK 创建成功结果
func OK(state LifecycleState) OpResult {
	return OpResult{Success: true, NewState: state}
}

// Fail 创建失败结果
func Fail(code ErrorCode, reason string, state LifecycleState) OpResult {
	return OpResult{Code: code, Reason: reason, NewState: state}
}

// ============================================================================
//                              事件结果
// ============================================================================

// EventResult 单个事件的受理结果
//
// Accepted 表示"已进入队列"，不代表已完成分发；
// 分发完成情况通过历史记录（HistoryEntry）观察。
type EventResult struct {
	// Accepted 事件是否被受理入队
	Accepted bool

	// Deduplicated 是否通过去重合并进了已有队列条目
	Deduplicated bool

	// Code 拒绝分类码（受理时为 CodeNone）
	Code ErrorCode

	// Reason 拒绝原因描述
	Reason string

	// CorrelationID 事件关联 ID
	CorrelationID string
}

// FailedEvent 批量发送中失败的事件及原因
type FailedEvent struct {
	// Event 失败的事件
	Event ElementEvent

	// Code 失败分类码
	Code ErrorCode

	// Reason 失败原因描述
	Reason string
}

// BatchEventResult 批量事件发送结果
//
// Successful、Failed、Queued 三个列表对输入构成 1:1 划分：
// len(Successful) + len(Failed) + len(Queued) == 输入事件数。
// Queued 列出通过去重合并进已有条目（未新占队列槽位）的事件。
type BatchEventResult struct {
	// Success 是否全部受理
	Success bool

	// Successful 受理入队的事件
	Successful []ElementEvent

	// Failed 被拒绝的事件及原因
	Failed []FailedEvent

	// Queued 通过去重合并的事件
	Queued []ElementEvent
}

// ============================================================================
//                              历史记录
// ============================================================================

// HistoryEntry 已分发事件的历史条目
type HistoryEntry struct {
	// Event 已分发的事件
	Event ElementEvent

	// Delivered 是否至少投递给了一个订阅者
	Delivered bool

	// Subscribers 收到该事件的订阅者数量
	Subscribers int

	// DispatchedAt 分发时间
	DispatchedAt time.Time
}

// ============================================================================
//                              队列统计
// ============================================================================

// QueueStats 事件队列统计信息
type QueueStats struct {
	// Total 队列中的事件总数
	Total int

	// PerPriority 各优先级的事件计数
	PerPriority map[Priority]int
}
