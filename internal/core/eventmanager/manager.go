// Package eventmanager 实现元素事件管理器
package eventmanager

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/lib/log"
	"github.com/elemflow/go-elemflow/pkg/types"
)

var logger = log.Logger("core/eventmanager")

// RemoteSource DeliverRemote 注入事件的缺省来源标记
//
// 传输桥接据此跳过回传，避免入站事件被再次转发出去。
const RemoteSource = "remote"

// ============================================================================
//                              选项
// ============================================================================

// 队列缺省值
const (
	defaultMaxQueueSize  = 1024
	defaultFlushInterval = 10 * time.Millisecond
)

// Options 事件管理器选项
type Options struct {
	// MaxQueueSize 队列容量上限
	MaxQueueSize int

	// FlushInterval 分发循环的触发间隔
	FlushInterval time.Duration

	// DeduplicateEvents 是否开启入队去重
	DeduplicateEvents bool

	// MaxHistorySize 分发历史容量
	MaxHistorySize int

	// ValidateEvent 入队前的事件校验钩子（可为 nil）
	ValidateEvent interfaces.ValidateEventFunc

	// Clock 时钟（测试注入 clock.Mock）
	Clock clock.Clock
}

// DefaultOptions 返回缺省选项
func DefaultOptions() Options {
	return Options{
		MaxQueueSize:      defaultMaxQueueSize,
		FlushInterval:     defaultFlushInterval,
		DeduplicateEvents: true,
		MaxHistorySize:    defaultHistorySize,
	}
}

// normalize 修正无效值为缺省值（不会返回错误）
func (o *Options) normalize() {
	if o.MaxQueueSize <= 0 {
		o.MaxQueueSize = defaultMaxQueueSize
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = defaultFlushInterval
	}
	if o.MaxHistorySize <= 0 {
		o.MaxHistorySize = defaultHistorySize
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
}

// ============================================================================
//                              Manager
// ============================================================================

// registryEntry 注册表条目
type registryEntry struct {
	element types.Element
	state   types.LifecycleState
}

// Manager 元素事件管理器
//
// 维护活跃元素注册表、优先级事件队列和单协程分发循环。
// SendEvent 的受理语义是"已进入队列"；分发完成情况通过 History 观察。
type Manager struct {
	mu       sync.Mutex
	opts     Options
	registry map[string]*registryEntry
	queue    *eventQueue
	hist     *history

	subs *subscriberSet

	// flushMu 串行化分发轮次（定时触发与显式 Flush 之间）
	flushMu sync.Mutex

	started bool
	closed  bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// 确保实现接口
var (
	_ interfaces.EventManager    = (*Manager)(nil)
	_ interfaces.ElementRegistry = (*Manager)(nil)
)

// NewManager 创建事件管理器
func NewManager(opts Options) *Manager {
	opts.normalize()
	return &Manager{
		opts:     opts,
		registry: make(map[string]*registryEntry),
		queue:    newEventQueue(opts.MaxQueueSize, opts.DeduplicateEvents),
		hist:     newHistory(opts.MaxHistorySize),
		subs:     newSubscriberSet(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start 启动分发循环
//
// 每 FlushInterval 触发一次 flush；重复调用为空操作。
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go m.loop()
}

// loop 分发循环
func (m *Manager) loop() {
	defer close(m.doneCh)

	ticker := m.opts.Clock.Ticker(m.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Flush()
		case <-m.stopCh:
			return
		}
	}
}

// Close 停止分发循环并排空残留事件
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	started := m.started
	m.mu.Unlock()

	close(m.stopCh)
	if started {
		<-m.doneCh
	}

	// 残留事件做最后一次分发
	m.Flush()
	return nil
}

// ============================================================================
//                              ElementRegistry 实现
// ============================================================================

// RegisterElement 将元素加入注册表
func (m *Manager) RegisterElement(element types.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[element.ID] = &registryEntry{
		element: element,
		state:   types.StateRegistered,
	}
}

// SetElementState 同步元素的当前生命周期状态
func (m *Manager) SetElementState(id string, state types.LifecycleState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.registry[id]; ok {
		entry.state = state
	}
}

// UnregisterElement 将元素移出注册表
func (m *Manager) UnregisterElement(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.registry, id)
}

// ============================================================================
//                              事件发送
// ============================================================================

// SendEvent 发送单个事件
//
// 受理语义：Accepted 表示已进入队列（或去重合并），
// 不代表已完成分发。
func (m *Manager) SendEvent(event types.ElementEvent) types.EventResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendLocked(event)
}

// sendLocked 入队前检查并入队（须持锁调用）
func (m *Manager) sendLocked(event types.ElementEvent) types.EventResult {
	corrID := event.Metadata.CorrelationID

	if m.closed {
		return types.EventResult{
			Code:          types.CodeState,
			Reason:        "event manager closed",
			CorrelationID: corrID,
		}
	}

	entry, ok := m.registry[event.ElementID]
	if !ok {
		return types.EventResult{
			Code:          types.CodeNotFound,
			Reason:        fmt.Sprintf("element %q not registered", event.ElementID),
			CorrelationID: corrID,
		}
	}
	if entry.state != types.StateActive {
		return types.EventResult{
			Code:          types.CodeState,
			Reason:        fmt.Sprintf("element %q is %s, only active accepts events", event.ElementID, entry.state),
			CorrelationID: corrID,
		}
	}

	if m.opts.ValidateEvent != nil {
		if err := m.opts.ValidateEvent(event); err != nil {
			return types.EventResult{
				Code:          types.CodeValidation,
				Reason:        err.Error(),
				CorrelationID: corrID,
			}
		}
	}

	merged, err := m.queue.Push(event)
	if err != nil {
		return types.EventResult{
			Code:          types.CodeOverflow,
			Reason:        err.Error(),
			CorrelationID: corrID,
		}
	}

	return types.EventResult{
		Accepted:      true,
		Deduplicated:  merged,
		CorrelationID: corrID,
	}
}

// SendBatchEvents 批量发送事件
//
// 每个事件独立处理，单个失败不影响其他事件。
// Successful/Failed/Queued 对输入构成 1:1 划分：
// 受理入队的进 Successful，去重合并的进 Queued，被拒绝的进 Failed。
func (m *Manager) SendBatchEvents(events []types.ElementEvent) types.BatchEventResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := types.BatchEventResult{Success: true}
	for _, event := range events {
		res := m.sendLocked(event)
		switch {
		case !res.Accepted:
			result.Success = false
			result.Failed = append(result.Failed, types.FailedEvent{
				Event:  event,
				Code:   res.Code,
				Reason: res.Reason,
			})
		case res.Deduplicated:
			result.Queued = append(result.Queued, event)
		default:
			result.Successful = append(result.Successful, event)
		}
	}
	return result
}

// DeliverRemote 远端事件注入入口
//
// 由传输桥接在收到入站事件时调用；来源为空时标记为 RemoteSource。
func (m *Manager) DeliverRemote(event types.ElementEvent) types.EventResult {
	if event.Metadata.Source == "" {
		event.Metadata.Source = RemoteSource
	}
	return m.SendEvent(event)
}

// ============================================================================
//                              分发
// ============================================================================

// Flush 执行一次分发
//
// 排空到期事件（严格按优先级、同级 FIFO），依次调用匹配的
// 元素级订阅者、全局订阅者；批次订阅者收到本轮全部事件
// 构成的一个有序组（可跨元素）。每个回调的 panic 被捕获并记录。
func (m *Manager) Flush() {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	m.mu.Lock()
	events := m.queue.Drain()
	m.mu.Unlock()

	if len(events) == 0 {
		return
	}

	elementSubs, globalSubs, batchSubs := m.subs.Snapshot()
	now := m.opts.Clock.Now()

	entries := make([]types.HistoryEntry, 0, len(events))
	for _, event := range events {
		delivered := 0
		for _, sub := range elementSubs {
			if sub.elementID == event.ElementID {
				m.invoke(event, sub.cb)
				delivered++
			}
		}
		for _, sub := range globalSubs {
			m.invoke(event, sub.cb)
			delivered++
		}
		entries = append(entries, types.HistoryEntry{
			Event:        event,
			Delivered:    delivered > 0,
			Subscribers:  delivered,
			DispatchedAt: now,
		})
	}

	for _, sub := range batchSubs {
		m.invokeBatch(events, sub.cb)
	}

	m.mu.Lock()
	for _, entry := range entries {
		m.hist.Append(entry)
	}
	m.mu.Unlock()
}

// invoke 调用单事件回调，隔离 panic
func (m *Manager) invoke(event types.ElementEvent, cb interfaces.EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event subscriber panicked",
				"element", event.ElementID,
				"event", event.Type,
				"panic", r)
		}
	}()
	cb(event)
}

// invokeBatch 调用批次回调，隔离 panic
func (m *Manager) invokeBatch(events []types.ElementEvent, cb interfaces.BatchHandler) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("batch subscriber panicked",
				"count", len(events),
				"panic", r)
		}
	}()
	cb(events)
}

// ============================================================================
//                              订阅
// ============================================================================

// Subscribe 订阅指定元素的事件
func (m *Manager) Subscribe(elementID string, cb interfaces.EventHandler) interfaces.UnsubscribeFunc {
	return m.subs.AddElement(elementID, cb)
}

// SubscribeToAll 订阅全部事件
func (m *Manager) SubscribeToAll(cb interfaces.EventHandler) interfaces.UnsubscribeFunc {
	return m.subs.AddGlobal(cb)
}

// SubscribeToBatch 按 flush 批次订阅事件
func (m *Manager) SubscribeToBatch(cb interfaces.BatchHandler) interfaces.UnsubscribeFunc {
	return m.subs.AddBatch(cb)
}

// ============================================================================
//                              查询
// ============================================================================

// GetElement 查询注册表中的元素
func (m *Manager) GetElement(id string) (types.Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.registry[id]
	if !ok {
		return types.Element{}, false
	}
	return entry.element, true
}

// GetQueueStats 返回队列统计
func (m *Manager) GetQueueStats() types.QueueStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Stats()
}

// History 返回已分发事件的历史（最老在前）
func (m *Manager) History() []types.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.Entries()
}
