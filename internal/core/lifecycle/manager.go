// Package lifecycle 实现元素生命周期管理器
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/lib/log"
	"github.com/elemflow/go-elemflow/pkg/types"
)

var logger = log.Logger("core/lifecycle")

// ============================================================================
//                              Manager
// ============================================================================

// elementEntry 单个被跟踪元素的内部记录
type elementEntry struct {
	element types.Element
	state   types.LifecycleState
}

// lifecycleSub 生命周期订阅记录
type lifecycleSub struct {
	id int
	cb interfaces.LifecycleSubscriber
}

// Manager 元素生命周期管理器
//
// 所有状态变更在单个互斥锁下执行，针对同一 ID 的操作天然串行；
// 生命周期事件在锁外投递，订阅者回调可以安全回调本管理器。
type Manager struct {
	mu       sync.Mutex
	elements map[string]*elementEntry

	subs      []lifecycleSub
	nextSubID int

	// registry EventManager 侧的注册表写入端（可为 nil）
	registry interfaces.ElementRegistry

	// resolver 内容解析协作者（可为 nil）
	resolver interfaces.ContentResolver

	caps  interfaces.Capabilities
	clock clock.Clock
}

// 确保实现接口
var _ interfaces.LifecycleManager = (*Manager)(nil)

// NewManager 创建生命周期管理器
//
// registry 可为 nil（独立使用，不接 EventManager）。
func NewManager(registry interfaces.ElementRegistry) *Manager {
	return &Manager{
		elements: make(map[string]*elementEntry),
		registry: registry,
		clock:    clock.New(),
	}
}

// SetContentResolver 设置内容解析协作者
func (m *Manager) SetContentResolver(r interfaces.ContentResolver, caps interfaces.Capabilities) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolver = r
	m.caps = caps
}

// SetClock 替换时钟（测试使用）
func (m *Manager) SetClock(c clock.Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = c
}

// ============================================================================
//                              生命周期操作
// ============================================================================

// CreateElement 创建元素并开始跟踪
func (m *Manager) CreateElement(id string, kind types.ElementKind, content any, props map[string]any) (types.Element, error) {
	m.mu.Lock()

	if _, ok := m.elements[id]; ok {
		m.mu.Unlock()
		return types.Element{}, types.NewCodedError(types.CodeValidation, id, types.ErrDuplicateID)
	}

	el := types.Element{
		ID:      id,
		Kind:    kind,
		Content: content,
		Props:   props,
	}
	m.elements[id] = &elementEntry{element: el, state: types.StateCreated}

	evt := m.eventLocked(id, types.LifecycleCreated, types.StateCreated, types.StateCreated)
	subs := m.snapshotSubsLocked()
	m.mu.Unlock()

	m.emit(subs, evt)
	return el, nil
}

// RegisterElement 注册元素：created → registered
func (m *Manager) RegisterElement(element types.Element) error {
	m.mu.Lock()

	entry, ok := m.elements[element.ID]
	if !ok {
		m.mu.Unlock()
		return types.NewCodedError(types.CodeNotFound, element.ID, types.ErrElementNotFound)
	}
	if entry.state != types.StateCreated {
		err := fmt.Errorf("%w: register requires created, element is %s", types.ErrInvalidTransition, entry.state)
		m.mu.Unlock()
		return types.NewCodedError(types.CodeState, element.ID, err)
	}

	entry.element = element
	entry.state = types.StateRegistered

	evt := m.eventLocked(element.ID, types.LifecycleRegistered, types.StateCreated, types.StateRegistered)
	subs := m.snapshotSubsLocked()
	reg := m.registry
	m.mu.Unlock()

	if reg != nil {
		reg.RegisterElement(element)
		reg.SetElementState(element.ID, types.StateRegistered)
	}
	m.emit(subs, evt)
	return nil
}

// ActivateElement 激活元素：{registered, suspended, error} → active
//
// updating → active 只能由内容更新的提交路径完成，
// 外部激活一个更新中的元素会被拒绝。
func (m *Manager) ActivateElement(id string) error {
	return m.transition(id, types.StateActive, types.LifecycleActivated,
		types.StateRegistered, types.StateSuspended, types.StateError)
}

// SuspendElement 挂起元素：active → suspended
func (m *Manager) SuspendElement(id string) error {
	return m.transition(id, types.StateSuspended, types.LifecycleSuspended,
		types.StateActive)
}

// transition 执行一次简单状态转换
//
// allowed 是该操作显式允许的源状态集合，比共享转换表更严格。
func (m *Manager) transition(id string, target types.LifecycleState, evtType types.LifecycleEventType, allowed ...types.LifecycleState) error {
	m.mu.Lock()

	entry, ok := m.elements[id]
	if !ok {
		m.mu.Unlock()
		return types.NewCodedError(types.CodeNotFound, id, types.ErrElementNotFound)
	}
	if entry.state == types.StateDestroyed {
		m.mu.Unlock()
		return types.NewCodedError(types.CodeDestroyed, id, types.ErrDestroyed)
	}
	permitted := false
	for _, s := range allowed {
		if entry.state == s {
			permitted = true
			break
		}
	}
	if !permitted {
		err := fmt.Errorf("%w: %s → %s", types.ErrInvalidTransition, entry.state, target)
		m.mu.Unlock()
		return types.NewCodedError(types.CodeState, id, err)
	}

	prev := entry.state
	entry.state = target

	evt := m.eventLocked(id, evtType, prev, target)
	subs := m.snapshotSubsLocked()
	reg := m.registry
	m.mu.Unlock()

	if reg != nil {
		reg.SetElementState(id, target)
	}
	m.emit(subs, evt)
	return nil
}

// UpdateElementContent 更新元素内容
//
// 转换序列 active → updating → (active | error)，
// 两次转换各产生一个生命周期事件。元素已挂起/已销毁/不存在时
// 立即返回失败结果，不发生任何转换、不发出任何事件。
func (m *Manager) UpdateElementContent(ctx context.Context, id string, partial any) types.OpResult {
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()

	entry, ok := m.elements[id]
	if !ok {
		m.mu.Unlock()
		return types.Fail(types.CodeNotFound, "element not found", types.StateCreated)
	}
	if entry.state != types.StateActive {
		state := entry.state
		m.mu.Unlock()
		return types.Fail(types.CodeState,
			fmt.Sprintf("update requires active, element is %s", state), state)
	}

	entry.state = types.StateUpdating
	evt := m.eventLocked(id, types.LifecycleUpdating, types.StateActive, types.StateUpdating)
	subs := m.snapshotSubsLocked()
	reg := m.registry
	resolver := m.resolver
	caps := m.caps
	m.mu.Unlock()

	if reg != nil {
		reg.SetElementState(id, types.StateUpdating)
	}
	m.emit(subs, evt)

	// 锁外解析内容；同 ID 的并发更新会在 active 检查处被拒绝
	content := partial
	var resolveErr error
	if resolver != nil {
		content, resolveErr = resolver.Resolve(ctx, partial, caps)
	}

	m.mu.Lock()
	entry, ok = m.elements[id]
	if !ok || entry.state == types.StateDestroyed {
		m.mu.Unlock()
		return types.Fail(types.CodeDestroyed, "element destroyed during update", types.StateDestroyed)
	}
	if entry.state != types.StateUpdating {
		// 更新期间状态被其他操作改写，放弃提交
		state := entry.state
		m.mu.Unlock()
		return types.Fail(types.CodeState,
			fmt.Sprintf("element left updating state during update, element is %s", state), state)
	}

	var result types.OpResult
	var commitEvt types.LifecycleEvent
	if resolveErr != nil {
		entry.state = types.StateError
		commitEvt = m.eventLocked(id, types.LifecycleError, types.StateUpdating, types.StateError)
		result = types.Fail(types.CodeValidation, resolveErr.Error(), types.StateError)
	} else {
		entry.element.Content = content
		entry.state = types.StateActive
		commitEvt = m.eventLocked(id, types.LifecycleActivated, types.StateUpdating, types.StateActive)
		result = types.OK(types.StateActive)
	}
	subs = m.snapshotSubsLocked()
	reg = m.registry
	m.mu.Unlock()

	if reg != nil {
		reg.SetElementState(id, result.NewState)
	}
	m.emit(subs, commitEvt)

	if resolveErr != nil {
		logger.Warn("content update failed", "element", id, "err", resolveErr)
	}
	return result
}

// DestroyElement 销毁元素
//
// 幂等：对已销毁元素的重复调用成功返回且不重复发出事件。
func (m *Manager) DestroyElement(id string) error {
	m.mu.Lock()

	entry, ok := m.elements[id]
	if !ok {
		m.mu.Unlock()
		return types.NewCodedError(types.CodeNotFound, id, types.ErrElementNotFound)
	}
	if entry.state == types.StateDestroyed {
		m.mu.Unlock()
		return nil
	}

	prev := entry.state
	entry.state = types.StateDestroyed

	evt := m.eventLocked(id, types.LifecycleDestroyed, prev, types.StateDestroyed)
	subs := m.snapshotSubsLocked()
	reg := m.registry
	m.mu.Unlock()

	if reg != nil {
		reg.UnregisterElement(id)
	}
	m.emit(subs, evt)
	return nil
}

// ============================================================================
//                              查询
// ============================================================================

// GetElementState 查询元素当前状态
func (m *Manager) GetElementState(id string) (types.LifecycleState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.elements[id]
	if !ok {
		return types.StateCreated, false
	}
	return entry.state, true
}

// GetLifecycleStats 返回各状态的元素计数
func (m *Manager) GetLifecycleStats() types.LifecycleStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := types.LifecycleStats{
		Total:    len(m.elements),
		PerState: make(map[types.LifecycleState]int),
	}
	for _, entry := range m.elements {
		stats.PerState[entry.state]++
	}
	return stats
}

// ============================================================================
//                              订阅
// ============================================================================

// SubscribeToLifecycle 订阅生命周期事件
func (m *Manager) SubscribeToLifecycle(cb interfaces.LifecycleSubscriber) interfaces.UnsubscribeFunc {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs = append(m.subs, lifecycleSub{id: id, cb: cb})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// ============================================================================
//                              内部方法
// ============================================================================

// eventLocked 构造生命周期事件（须持锁调用）
func (m *Manager) eventLocked(id string, typ types.LifecycleEventType, prev, next types.LifecycleState) types.LifecycleEvent {
	return types.LifecycleEvent{
		ElementID:     id,
		Type:          typ,
		PreviousState: prev,
		NewState:      next,
		Timestamp:     m.clock.Now(),
	}
}

// snapshotSubsLocked 复制订阅者列表（须持锁调用）
//
// 投递使用快照：投递期间的订阅/退订不影响本轮。
func (m *Manager) snapshotSubsLocked() []lifecycleSub {
	out := make([]lifecycleSub, len(m.subs))
	copy(out, m.subs)
	return out
}

// emit 按注册顺序同步投递生命周期事件
//
// 单个订阅者的 panic 被捕获并记录，不中断其余订阅者的投递。
func (m *Manager) emit(subs []lifecycleSub, evt types.LifecycleEvent) {
	for _, s := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("lifecycle subscriber panicked",
						"element", evt.ElementID,
						"event", evt.Type,
						"panic", r)
				}
			}()
			s.cb(evt)
		}()
	}
}
