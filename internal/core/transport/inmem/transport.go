// Package inmem 实现内存参考传输
package inmem

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/lib/log"
	"github.com/elemflow/go-elemflow/pkg/types"
)

var logger = log.Logger("core/transport/inmem")

// ============================================================================
//                              选项
// ============================================================================

// defaultReconnectDelay 自主重连的缺省延迟
const defaultReconnectDelay = 50 * time.Millisecond

// Options 内存传输选项
type Options struct {
	// ConnectDelay 连接建立延迟（0 表示即时完成）
	ConnectDelay time.Duration

	// ReconnectDelay 故障注入后自主重连的延迟
	ReconnectDelay time.Duration

	// Clock 时钟（测试注入 clock.Mock）
	Clock clock.Clock
}

// normalize 修正无效值为缺省值
func (o *Options) normalize() {
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = defaultReconnectDelay
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
}

// ============================================================================
//                              处理器记录
// ============================================================================

type elementHandler struct {
	id        int
	elementID string
	cb        interfaces.EventHandler
}

type globalHandler struct {
	id int
	cb interfaces.EventHandler
}

type batchHandler struct {
	id int
	cb interfaces.BatchHandler
}

type stateHandler struct {
	id int
	cb interfaces.ConnectionStateHandler
}

type errorHandler struct {
	id int
	cb interfaces.ErrorHandler
}

// ============================================================================
//                              Transport
// ============================================================================

// Transport 内存参考传输
//
// 实现完整的传输契约：连接状态机、事件收发、订阅扇出、
// 统计计数与自主重连。可通过 NewPair 构成回环对，
// 一端发送的事件扇出到另一端的处理器；未配对时回环到自身。
type Transport struct {
	mu   sync.Mutex
	opts Options

	state     types.ConnectionState
	destroyed atomic.Bool

	// settleCh 连接建立期间非 nil，完成时关闭；
	// 并发 Connect 在其上等待，与首个调用收敛到同一结果
	settleCh   chan struct{}
	settleErr  error
	connectedAt time.Time

	peer *Transport

	nextID   int
	element  []elementHandler
	global   []globalHandler
	batch    []batchHandler
	stateSub []stateHandler
	errSub   []errorHandler

	// 统计（单调递增）
	eventsSent     atomic.Uint64
	eventsReceived atomic.Uint64
	batchSent      atomic.Uint64
	batchReceived  atomic.Uint64
	connErrors     atomic.Uint64
	msgErrors      atomic.Uint64
	latencyTotal   atomic.Int64
	latencyCount   atomic.Uint64
}

// 确保实现接口
var _ interfaces.Transport = (*Transport)(nil)

// New 创建内存传输（未配对，回环到自身）
func New(opts Options) *Transport {
	opts.normalize()
	return &Transport{
		opts:  opts,
		state: types.ConnDisconnected,
	}
}

// NewPair 创建互联的内存传输对
//
// 一端 SendEvent 的事件投递到另一端的处理器，反之亦然。
func NewPair(opts Options) (*Transport, *Transport) {
	a := New(opts)
	b := New(opts)
	a.peer = b
	b.peer = a
	return a, b
}

// ============================================================================
//                              连接管理
// ============================================================================

// Connect 建立连接
//
// disconnected|error → connecting → connected。
// connecting/connected 期间的并发调用是幂等空操作，
// 与首个调用收敛到同一结果，不产生重复的 connecting 通知。
// reconnecting 期间的调用阻塞到自主恢复完成后返回其结果。
func (t *Transport) Connect(ctx context.Context) error {
	if t.destroyed.Load() {
		return types.NewCodedError(types.CodeDestroyed, "", types.ErrDestroyed)
	}

	t.mu.Lock()
	switch t.state {
	case types.ConnConnected:
		t.mu.Unlock()
		return nil

	case types.ConnConnecting, types.ConnReconnecting:
		ch := t.settleCh
		t.mu.Unlock()
		if ch == nil {
			return nil
		}
		select {
		case <-ch:
			t.mu.Lock()
			err := t.settleErr
			t.mu.Unlock()
			return err
		case <-ctx.Done():
			return types.NewCodedError(types.CodeTimeout, "", types.ErrTimeout)
		}
	}

	// disconnected | error → connecting
	prev := t.state
	t.state = types.ConnConnecting
	t.settleErr = nil
	ch := make(chan struct{})
	t.settleCh = ch
	subs := t.snapshotStateSubsLocked()
	t.mu.Unlock()

	t.notifyState(subs, prev, types.ConnConnecting)

	if t.opts.ConnectDelay <= 0 {
		t.finishConnect()
		return t.settleResult()
	}

	t.opts.Clock.AfterFunc(t.opts.ConnectDelay, t.finishConnect)

	select {
	case <-ch:
		return t.settleResult()
	case <-ctx.Done():
		return types.NewCodedError(types.CodeTimeout, "", types.ErrTimeout)
	}
}

// finishConnect 完成连接建立
func (t *Transport) finishConnect() {
	t.mu.Lock()
	if t.destroyed.Load() || t.state != types.ConnConnecting {
		if t.settleCh != nil {
			t.settleErr = types.NewCodedError(types.CodeDestroyed, "", types.ErrDestroyed)
			close(t.settleCh)
			t.settleCh = nil
		}
		t.mu.Unlock()
		return
	}

	t.state = types.ConnConnected
	t.connectedAt = t.opts.Clock.Now()
	ch := t.settleCh
	t.settleCh = nil
	subs := t.snapshotStateSubsLocked()
	t.mu.Unlock()

	if ch != nil {
		close(ch)
	}
	t.notifyState(subs, types.ConnConnecting, types.ConnConnected)
}

// settleResult 读取连接结果
func (t *Transport) settleResult() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settleErr
}

// Disconnect 断开连接
//
// connected|reconnecting|error → disconnected；幂等。
func (t *Transport) Disconnect(_ context.Context) error {
	if t.destroyed.Load() {
		return types.NewCodedError(types.CodeDestroyed, "", types.ErrDestroyed)
	}

	t.mu.Lock()
	if t.state == types.ConnDisconnected {
		t.mu.Unlock()
		return nil
	}

	prev := t.state
	t.state = types.ConnDisconnected
	if t.settleCh != nil {
		t.settleErr = types.NewCodedError(types.CodeNotConnected, "", types.ErrNotConnected)
		close(t.settleCh)
		t.settleCh = nil
	}
	subs := t.snapshotStateSubsLocked()
	t.mu.Unlock()

	t.notifyState(subs, prev, types.ConnDisconnected)
	return nil
}

// InjectFault 注入瞬时故障
//
// connected → reconnecting，经 ReconnectDelay 后自主恢复为 connected；
// 故障前注册的订阅在恢复后保持有效。非 connected 状态下为空操作。
func (t *Transport) InjectFault(cause error) {
	t.mu.Lock()
	if t.state != types.ConnConnected {
		t.mu.Unlock()
		return
	}
	t.state = types.ConnReconnecting
	t.connErrors.Add(1)
	// 重连期间的 Connect 在 settleCh 上等待恢复完成
	t.settleErr = nil
	t.settleCh = make(chan struct{})
	stateSubs := t.snapshotStateSubsLocked()
	errSubs := make([]errorHandler, len(t.errSub))
	copy(errSubs, t.errSub)
	t.mu.Unlock()

	t.notifyState(stateSubs, types.ConnConnected, types.ConnReconnecting)
	for _, h := range errSubs {
		t.invokeError(h.cb, cause)
	}

	t.opts.Clock.AfterFunc(t.opts.ReconnectDelay, func() {
		t.mu.Lock()
		if t.destroyed.Load() || t.state != types.ConnReconnecting {
			t.mu.Unlock()
			return
		}
		t.state = types.ConnConnected
		ch := t.settleCh
		t.settleCh = nil
		subs := t.snapshotStateSubsLocked()
		t.mu.Unlock()

		if ch != nil {
			close(ch)
		}
		t.notifyState(subs, types.ConnReconnecting, types.ConnConnected)
	})
}

// ============================================================================
//                              事件收发
// ============================================================================

// SendEvent 发送单个事件
func (t *Transport) SendEvent(ctx context.Context, event types.ElementEvent) error {
	if err := t.sendPrecheck(ctx); err != nil {
		return err
	}

	start := t.opts.Clock.Now()
	t.target().deliver(event)
	t.eventsSent.Add(1)
	t.recordLatency(t.opts.Clock.Since(start))
	return nil
}

// SendBatchEvents 发送批量事件
func (t *Transport) SendBatchEvents(ctx context.Context, events []types.ElementEvent) error {
	if err := t.sendPrecheck(ctx); err != nil {
		return err
	}

	start := t.opts.Clock.Now()
	t.target().deliverBatch(events)
	t.batchSent.Add(1)
	t.eventsSent.Add(uint64(len(events)))
	t.recordLatency(t.opts.Clock.Since(start))
	return nil
}

// sendPrecheck 发送前检查：销毁标志、截止时间、连接状态
func (t *Transport) sendPrecheck(ctx context.Context) error {
	if t.destroyed.Load() {
		return types.NewCodedError(types.CodeDestroyed, "", types.ErrDestroyed)
	}
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			t.msgErrors.Add(1)
			return types.NewCodedError(types.CodeTimeout, "", types.ErrTimeout)
		}
	}

	t.mu.Lock()
	state := t.state
	t.mu.Unlock()
	if state != types.ConnConnected {
		return types.NewCodedError(types.CodeNotConnected, "", types.ErrNotConnected)
	}
	return nil
}

// target 返回投递目标（配对端或自身回环）
func (t *Transport) target() *Transport {
	if t.peer != nil {
		return t.peer
	}
	return t
}

// deliver 入站事件扇出到本端处理器
//
// 单个处理器的 panic 被捕获并记录，不影响其余处理器。
func (t *Transport) deliver(event types.ElementEvent) {
	t.eventsReceived.Add(1)

	t.mu.Lock()
	element := make([]elementHandler, len(t.element))
	copy(element, t.element)
	global := make([]globalHandler, len(t.global))
	copy(global, t.global)
	t.mu.Unlock()

	for _, h := range element {
		if h.elementID == event.ElementID {
			t.invokeHandler(h.cb, event)
		}
	}
	for _, h := range global {
		t.invokeHandler(h.cb, event)
	}
}

// deliverBatch 入站批量事件扇出
func (t *Transport) deliverBatch(events []types.ElementEvent) {
	t.batchReceived.Add(1)

	t.mu.Lock()
	batch := make([]batchHandler, len(t.batch))
	copy(batch, t.batch)
	t.mu.Unlock()

	for _, event := range events {
		t.deliver(event)
	}
	for _, h := range batch {
		t.invokeBatchHandler(h.cb, events)
	}
}

// invokeHandler 调用单事件处理器，隔离 panic
func (t *Transport) invokeHandler(cb interfaces.EventHandler, event types.ElementEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.msgErrors.Add(1)
			logger.Error("inbound handler panicked",
				"element", event.ElementID, "panic", r)
		}
	}()
	cb(event)
}

// invokeBatchHandler 调用批量处理器，隔离 panic
func (t *Transport) invokeBatchHandler(cb interfaces.BatchHandler, events []types.ElementEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.msgErrors.Add(1)
			logger.Error("inbound batch handler panicked",
				"count", len(events), "panic", r)
		}
	}()
	cb(events)
}

// invokeError 调用错误处理器，隔离 panic
func (t *Transport) invokeError(cb interfaces.ErrorHandler, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("error handler panicked", "panic", r)
		}
	}()
	cb(err)
}

// recordLatency 累计发送延迟
func (t *Transport) recordLatency(d time.Duration) {
	t.latencyTotal.Add(int64(d))
	t.latencyCount.Add(1)
}

// ============================================================================
//                              订阅
// ============================================================================

// subscribePrecheck 订阅前检查
func (t *Transport) subscribePrecheck() error {
	if t.destroyed.Load() {
		return types.NewCodedError(types.CodeDestroyed, "", types.ErrDestroyed)
	}
	t.mu.Lock()
	state := t.state
	t.mu.Unlock()
	if state != types.ConnConnected {
		return types.NewCodedError(types.CodeNotConnected, "", types.ErrNotConnected)
	}
	return nil
}

// SubscribeToElement 订阅指定元素的入站事件
func (t *Transport) SubscribeToElement(elementID string, cb interfaces.EventHandler) (interfaces.UnsubscribeFunc, error) {
	if err := t.subscribePrecheck(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.element = append(t.element, elementHandler{id: id, elementID: elementID, cb: cb})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, h := range t.element {
			if h.id == id {
				t.element = append(t.element[:i], t.element[i+1:]...)
				return
			}
		}
	}, nil
}

// SubscribeToAll 订阅全部入站事件
func (t *Transport) SubscribeToAll(cb interfaces.EventHandler) (interfaces.UnsubscribeFunc, error) {
	if err := t.subscribePrecheck(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.global = append(t.global, globalHandler{id: id, cb: cb})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, h := range t.global {
			if h.id == id {
				t.global = append(t.global[:i], t.global[i+1:]...)
				return
			}
		}
	}, nil
}

// SubscribeToBatch 订阅入站批量事件
func (t *Transport) SubscribeToBatch(cb interfaces.BatchHandler) (interfaces.UnsubscribeFunc, error) {
	if err := t.subscribePrecheck(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.batch = append(t.batch, batchHandler{id: id, cb: cb})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, h := range t.batch {
			if h.id == id {
				t.batch = append(t.batch[:i], t.batch[i+1:]...)
				return
			}
		}
	}, nil
}

// OnConnectionStateChange 注册连接状态变化回调
func (t *Transport) OnConnectionStateChange(cb interfaces.ConnectionStateHandler) interfaces.UnsubscribeFunc {
	if t.destroyed.Load() {
		return func() {}
	}

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.stateSub = append(t.stateSub, stateHandler{id: id, cb: cb})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, h := range t.stateSub {
			if h.id == id {
				t.stateSub = append(t.stateSub[:i], t.stateSub[i+1:]...)
				return
			}
		}
	}
}

// OnError 注册传输错误回调
func (t *Transport) OnError(cb interfaces.ErrorHandler) interfaces.UnsubscribeFunc {
	if t.destroyed.Load() {
		return func() {}
	}

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.errSub = append(t.errSub, errorHandler{id: id, cb: cb})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, h := range t.errSub {
			if h.id == id {
				t.errSub = append(t.errSub[:i], t.errSub[i+1:]...)
				return
			}
		}
	}
}

// ============================================================================
//                              统计与销毁
// ============================================================================

// GetStats 返回传输统计快照
func (t *Transport) GetStats() types.TransportStats {
	t.mu.Lock()
	state := t.state
	connectedAt := t.connectedAt
	active := len(t.element) + len(t.global) + len(t.batch)
	t.mu.Unlock()

	var uptime time.Duration
	if (state == types.ConnConnected || state == types.ConnReconnecting) && !connectedAt.IsZero() {
		uptime = t.opts.Clock.Since(connectedAt)
	}

	var avgLatency time.Duration
	if n := t.latencyCount.Load(); n > 0 {
		avgLatency = time.Duration(t.latencyTotal.Load() / int64(n))
	}

	return types.TransportStats{
		EventsSent:          t.eventsSent.Load(),
		EventsReceived:      t.eventsReceived.Load(),
		BatchEventsSent:     t.batchSent.Load(),
		BatchEventsReceived: t.batchReceived.Load(),
		ConnectionErrors:    t.connErrors.Load(),
		MessageErrors:       t.msgErrors.Load(),
		ActiveSubscriptions: active,
		Uptime:              uptime,
		AverageLatency:      avgLatency,
	}
}

// State 返回当前连接状态
func (t *Transport) State() types.ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Destroy 销毁传输
//
// 置位 destroyed 标志（永久），断开连接，清空全部处理器；幂等。
// 此后所有操作调用都以 ErrDestroyed 失败。
func (t *Transport) Destroy() error {
	if t.destroyed.Swap(true) {
		return nil
	}

	t.mu.Lock()
	prev := t.state
	t.state = types.ConnDisconnected
	if t.settleCh != nil {
		t.settleErr = types.NewCodedError(types.CodeDestroyed, "", types.ErrDestroyed)
		close(t.settleCh)
		t.settleCh = nil
	}
	subs := t.snapshotStateSubsLocked()
	t.element = nil
	t.global = nil
	t.batch = nil
	t.errSub = nil
	t.stateSub = nil
	t.mu.Unlock()

	if prev != types.ConnDisconnected {
		t.notifyState(subs, prev, types.ConnDisconnected)
	}
	return nil
}

// ============================================================================
//                              内部方法
// ============================================================================

// snapshotStateSubsLocked 复制状态回调列表（须持锁调用）
func (t *Transport) snapshotStateSubsLocked() []stateHandler {
	out := make([]stateHandler, len(t.stateSub))
	copy(out, t.stateSub)
	return out
}

// notifyState 通知连接状态变化，隔离 panic
func (t *Transport) notifyState(subs []stateHandler, prev, current types.ConnectionState) {
	for _, h := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("state handler panicked",
						"prev", prev, "current", current, "panic", r)
				}
			}()
			h.cb(prev, current)
		}()
	}
}
