// Package interfaces 定义 ElemFlow 公共接口
//
// 本文件定义事件传输层接口。
package interfaces

import (
	"context"

	"github.com/elemflow/go-elemflow/pkg/types"
)

// ============================================================================
//                              回调类型
// ============================================================================

// ConnectionStateHandler 连接状态变化回调
type ConnectionStateHandler func(previous, current types.ConnectionState)

// ErrorHandler 传输错误回调
type ErrorHandler func(err error)

// ============================================================================
//                              Transport 接口
// ============================================================================

// Transport 事件传输层
//
// 负责在远端对等体之间搬运元素事件，自带连接状态机：
// {disconnected, connecting, connected, reconnecting, error}，
// 初始为 disconnected。destroyed 是正交的永久标志，置位后
// 所有操作永久以 ErrDestroyed 失败。
//
// 传输可以在瞬时故障后自主执行 connected → reconnecting → connected，
// 故障前注册的订阅在恢复后保持有效。
type Transport interface {
	// Connect 建立连接：disconnected|error → connecting → connected|error
	//
	// 在 connecting/connected 期间的并发调用是幂等空操作，
	// 与首个调用收敛到同一结果；reconnecting 期间的调用
	// 等待自主恢复完成后返回。
	Connect(ctx context.Context) error

	// Disconnect 断开连接：connected|reconnecting|error → disconnected
	//
	// 幂等。
	Disconnect(ctx context.Context) error

	// SendEvent 发送单个事件
	//
	// 要求 connected，否则返回 ErrNotConnected；
	// 截止时间到期返回 ErrTimeout；完成时原子更新发送计数。
	SendEvent(ctx context.Context, event types.ElementEvent) error

	// SendBatchEvents 发送批量事件
	SendBatchEvents(ctx context.Context, events []types.ElementEvent) error

	// SubscribeToElement 订阅指定元素的入站事件
	//
	// 要求 connected。入站事件扇出到所有匹配的处理器，
	// 单个处理器的异常被捕获并记录，不影响其余处理器。
	SubscribeToElement(elementID string, cb EventHandler) (UnsubscribeFunc, error)

	// SubscribeToAll 订阅全部入站事件
	SubscribeToAll(cb EventHandler) (UnsubscribeFunc, error)

	// SubscribeToBatch 订阅入站批量事件
	SubscribeToBatch(cb BatchHandler) (UnsubscribeFunc, error)

	// OnConnectionStateChange 注册连接状态变化回调
	OnConnectionStateChange(cb ConnectionStateHandler) UnsubscribeFunc

	// OnError 注册传输错误回调
	OnError(cb ErrorHandler) UnsubscribeFunc

	// GetStats 返回传输统计快照（计数器单调递增）
	GetStats() types.TransportStats

	// Destroy 销毁传输
	//
	// 置位 destroyed 标志（永久），断开连接，清空全部处理器。
	// 此后每个操作调用都以 ErrDestroyed 失败。
	Destroy() error
}
