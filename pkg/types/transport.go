package types

import "time"

// ============================================================================
//                              ConnectionState - 连接状态
// ============================================================================

// ConnectionState 传输连接状态
//
// 状态机：
//
//	disconnected|error → connecting → connected|error
//	connected → reconnecting → connected（自主恢复）
//	connected|reconnecting|error → disconnected
//
// destroyed 不是连接状态，而是正交的永久标志。
type ConnectionState int

const (
	// ConnDisconnected 未连接（初始状态）
	ConnDisconnected ConnectionState = iota

	// ConnConnecting 连接中
	ConnConnecting

	// ConnConnected 已连接
	ConnConnected

	// ConnReconnecting 重连中
	ConnReconnecting

	// ConnError 连接错误
	ConnError
)

// String 返回连接状态的字符串表示
func (s ConnectionState) String() string {
	switch s {
	case ConnDisconnected:
		return "disconnected"
	case ConnConnecting:
		return "connecting"
	case ConnConnected:
		return "connected"
	case ConnReconnecting:
		return "reconnecting"
	case ConnError:
		return "error"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              TransportStats - 传输统计
// ============================================================================

// TransportStats 传输统计信息
//
// 计数器单调递增，只读快照。
type TransportStats struct {
	// EventsSent 已发送事件数
	EventsSent uint64

	// EventsReceived 已接收事件数
	EventsReceived uint64

	// BatchEventsSent 已发送批量事件数
	BatchEventsSent uint64

	// BatchEventsReceived 已接收批量事件数
	BatchEventsReceived uint64

	// ConnectionErrors 连接错误数
	ConnectionErrors uint64

	// MessageErrors 消息错误数
	MessageErrors uint64

	// ActiveSubscriptions 活跃订阅数
	ActiveSubscriptions int

	// Uptime 自最近一次连接以来的在线时长
	Uptime time.Duration

	// AverageLatency 平均发送延迟
	AverageLatency time.Duration
}
