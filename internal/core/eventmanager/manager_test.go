// Package eventmanager 事件管理器测试
package eventmanager

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/types"
)

// newTestManager 创建带一个 active 元素的管理器
func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	m := NewManager(opts)
	t.Cleanup(func() { _ = m.Close() })

	el := types.NewElement("el-1", types.KindImage, "payload")
	m.RegisterElement(el)
	m.SetElementState("el-1", types.StateActive)
	return m
}

// ============================================================================
// 接口契约测试
// ============================================================================

// TestManager_ImplementsInterfaces 验证 Manager 实现接口
func TestManager_ImplementsInterfaces(t *testing.T) {
	var _ interfaces.EventManager = (*Manager)(nil)
	var _ interfaces.ElementRegistry = (*Manager)(nil)
}

// ============================================================================
// 发送测试
// ============================================================================

// TestManager_SendEvent 测试正常受理
func TestManager_SendEvent(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	evt := types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "v1")
	res := m.SendEvent(evt)
	require.True(t, res.Accepted)
	assert.Equal(t, evt.Metadata.CorrelationID, res.CorrelationID)

	stats := m.GetQueueStats()
	assert.Equal(t, 1, stats.Total)
}

// TestManager_SendEvent_Unregistered 测试未注册元素被拒
func TestManager_SendEvent_Unregistered(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	res := m.SendEvent(types.NewEvent("ghost", types.KindImage, types.EventUpdatePayload, nil))
	require.False(t, res.Accepted)
	assert.Equal(t, types.CodeNotFound, res.Code)
	assert.Equal(t, 0, m.GetQueueStats().Total, "rejected event must never enqueue")
}

// TestManager_SendEvent_NotActive 测试非 active 元素被拒
func TestManager_SendEvent_NotActive(t *testing.T) {
	m := newTestManager(t, DefaultOptions())
	m.SetElementState("el-1", types.StateSuspended)

	res := m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, nil))
	require.False(t, res.Accepted)
	assert.Equal(t, types.CodeState, res.Code)
	assert.Equal(t, 0, m.GetQueueStats().Total)
}

// TestManager_SendEvent_ValidateHook 测试校验钩子
func TestManager_SendEvent_ValidateHook(t *testing.T) {
	opts := DefaultOptions()
	opts.ValidateEvent = func(evt types.ElementEvent) error {
		if evt.Data == nil {
			return errors.New("empty payload")
		}
		return nil
	}
	m := newTestManager(t, opts)

	res := m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, nil))
	require.False(t, res.Accepted)
	assert.Equal(t, types.CodeValidation, res.Code)

	res = m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "ok"))
	assert.True(t, res.Accepted)
}

// TestManager_SendEvent_Overflow 测试队列满时同步失败
func TestManager_SendEvent_Overflow(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxQueueSize = 2
	opts.DeduplicateEvents = false
	m := newTestManager(t, opts)

	for i := 0; i < 2; i++ {
		res := m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdateStyle, i))
		require.True(t, res.Accepted)
	}

	res := m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdateStyle, 2))
	require.False(t, res.Accepted)
	assert.Equal(t, types.CodeOverflow, res.Code)
	assert.Equal(t, 2, m.GetQueueStats().Total, "queued events must survive overflow")
}

// ============================================================================
// 批量发送测试
// ============================================================================

// TestManager_SendBatchEvents_Partition 测试批量结果 1:1 划分
func TestManager_SendBatchEvents_Partition(t *testing.T) {
	opts := DefaultOptions()
	opts.DeduplicateEvents = false
	m := newTestManager(t, opts)

	events := []types.ElementEvent{
		types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "a"),
		types.NewEvent("ghost-1", types.KindImage, types.EventUpdatePayload, "b"),
		types.NewEvent("el-1", types.KindImage, types.EventUpdateStyle, "c"),
		types.NewEvent("ghost-2", types.KindImage, types.EventUpdatePayload, "d"),
	}

	result := m.SendBatchEvents(events)
	assert.False(t, result.Success)
	assert.Equal(t, len(events), len(result.Successful)+len(result.Failed)+len(result.Queued))
	assert.Len(t, result.Failed, 2)
	for _, f := range result.Failed {
		assert.Equal(t, types.CodeNotFound, f.Code)
	}
	assert.Len(t, result.Successful, 2)
}

// TestManager_SendBatchEvents_DedupGoesToQueued 测试去重合并进 Queued
func TestManager_SendBatchEvents_DedupGoesToQueued(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	events := []types.ElementEvent{
		types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "v1"),
		types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "v2"),
	}

	result := m.SendBatchEvents(events)
	assert.True(t, result.Success)
	assert.Len(t, result.Successful, 1)
	assert.Len(t, result.Queued, 1)
	assert.Equal(t, 2, len(result.Successful)+len(result.Failed)+len(result.Queued))
}

// ============================================================================
// 分发测试
// ============================================================================

// TestManager_Flush_Subscribers 测试三类订阅者投递
func TestManager_Flush_Subscribers(t *testing.T) {
	m := newTestManager(t, DefaultOptions())
	m.RegisterElement(types.NewElement("el-2", types.KindVideo, nil))
	m.SetElementState("el-2", types.StateActive)

	var scoped, global []string
	var batches [][]types.ElementEvent
	m.Subscribe("el-1", func(evt types.ElementEvent) { scoped = append(scoped, evt.ElementID) })
	m.SubscribeToAll(func(evt types.ElementEvent) { global = append(global, evt.ElementID) })
	m.SubscribeToBatch(func(events []types.ElementEvent) { batches = append(batches, events) })

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, nil))
	m.SendEvent(types.NewEvent("el-2", types.KindVideo, types.EventUpdateStyle, nil))
	m.Flush()

	assert.Equal(t, []string{"el-1"}, scoped)
	assert.Equal(t, []string{"el-1", "el-2"}, global)
	require.Len(t, batches, 1, "batch subscriber gets the whole tick as one group")
	assert.Len(t, batches[0], 2)
}

// TestManager_Flush_Dedup 测试去重后恰好分发一次且携带新值
func TestManager_Flush_Dedup(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	var got []any
	m.Subscribe("el-1", func(evt types.ElementEvent) { got = append(got, evt.Data) })

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "v1"))
	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "v2"))
	m.Flush()

	require.Len(t, got, 1)
	assert.Equal(t, "v2", got[0])
}

// TestManager_Flush_SubscriberPanic 测试回调 panic 隔离
func TestManager_Flush_SubscriberPanic(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	var reached bool
	m.SubscribeToAll(func(types.ElementEvent) { panic("boom") })
	m.SubscribeToAll(func(types.ElementEvent) { reached = true })

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, nil))
	m.Flush()
	assert.True(t, reached)
}

// TestManager_UnsubscribeDuringDispatch 测试分发中退订不影响本轮
func TestManager_UnsubscribeDuringDispatch(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	var first, second int
	var unsubSecond interfaces.UnsubscribeFunc
	m.SubscribeToAll(func(types.ElementEvent) {
		first++
		unsubSecond()
	})
	unsubSecond = m.SubscribeToAll(func(types.ElementEvent) { second++ })

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, nil))
	m.Flush()

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second, "unsubscribe during dispatch must not affect the current pass")

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdateStyle, nil))
	m.Flush()
	assert.Equal(t, 2, first)
	assert.Equal(t, 1, second)
}

// TestManager_SubscribeFromCallback 测试回调内订阅安全
func TestManager_SubscribeFromCallback(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	var nested int
	m.SubscribeToAll(func(types.ElementEvent) {
		m.Subscribe("el-1", func(types.ElementEvent) { nested++ })
	})

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, nil))
	m.Flush()
	assert.Equal(t, 0, nested, "subscription added during dispatch joins the next pass")

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdateStyle, nil))
	m.Flush()
	assert.Equal(t, 1, nested)
}

// ============================================================================
// 历史测试
// ============================================================================

// TestManager_History 测试分发历史记录
func TestManager_History(t *testing.T) {
	m := newTestManager(t, DefaultOptions())
	m.SubscribeToAll(func(types.ElementEvent) {})

	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "v1"))
	m.Flush()

	hist := m.History()
	require.Len(t, hist, 1)
	assert.True(t, hist[0].Delivered)
	assert.Equal(t, 1, hist[0].Subscribers)
}

// TestManager_History_Bounded 测试历史容量封顶、先进先出淘汰
func TestManager_History_Bounded(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxHistorySize = 3
	opts.DeduplicateEvents = false
	m := newTestManager(t, opts)

	for i := 0; i < 5; i++ {
		m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdateStyle, i))
		m.Flush()
	}

	hist := m.History()
	require.Len(t, hist, 3)
	assert.Equal(t, 2, hist[0].Event.Data, "oldest entries evicted first")
	assert.Equal(t, 4, hist[2].Event.Data)
}

// ============================================================================
// 分发循环测试
// ============================================================================

// TestManager_DispatchLoop_MockClock 测试定时分发
func TestManager_DispatchLoop_MockClock(t *testing.T) {
	mock := clock.NewMock()
	opts := DefaultOptions()
	opts.Clock = mock
	opts.FlushInterval = 50 * time.Millisecond
	m := newTestManager(t, opts)

	delivered := make(chan types.ElementEvent, 1)
	m.Subscribe("el-1", func(evt types.ElementEvent) { delivered <- evt })

	m.Start()
	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "tick"))

	// 留给分发循环创建 ticker 的时间窗口
	time.Sleep(10 * time.Millisecond)
	mock.Add(50 * time.Millisecond)

	select {
	case evt := <-delivered:
		assert.Equal(t, "tick", evt.Data)
	case <-time.After(time.Second):
		t.Fatal("event not dispatched after flush interval")
	}
}

// TestManager_Close_StopsLoop 测试关闭后循环退出且无泄漏
func TestManager_Close_StopsLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewManager(DefaultOptions())
	m.RegisterElement(types.NewElement("el-1", types.KindImage, nil))
	m.SetElementState("el-1", types.StateActive)
	m.Start()

	var got int
	m.SubscribeToAll(func(types.ElementEvent) { got++ })
	m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, nil))

	require.NoError(t, m.Close())
	assert.Equal(t, 1, got, "close drains pending events")

	// 关闭后发送被拒
	res := m.SendEvent(types.NewEvent("el-1", types.KindImage, types.EventUpdateStyle, nil))
	assert.False(t, res.Accepted)
	assert.Equal(t, types.CodeState, res.Code)

	// 重复关闭安全
	require.NoError(t, m.Close())
}

// ============================================================================
// 远端注入测试
// ============================================================================

// TestManager_DeliverRemote 测试远端事件注入
func TestManager_DeliverRemote(t *testing.T) {
	m := newTestManager(t, DefaultOptions())

	var sources []string
	m.Subscribe("el-1", func(evt types.ElementEvent) { sources = append(sources, evt.Metadata.Source) })

	evt := types.NewEvent("el-1", types.KindImage, types.EventUpdatePayload, "inbound")
	evt.Metadata.Source = ""
	res := m.DeliverRemote(evt)
	require.True(t, res.Accepted)

	m.Flush()
	require.Len(t, sources, 1)
	assert.Equal(t, RemoteSource, sources[0])
}
