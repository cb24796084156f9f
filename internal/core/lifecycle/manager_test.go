// Package lifecycle 元素生命周期管理测试
package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/types"
)

// mockRegistry 模拟 EventManager 侧注册表
type mockRegistry struct {
	registered   []string
	unregistered []string
	states       map[string]types.LifecycleState
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{states: make(map[string]types.LifecycleState)}
}

func (r *mockRegistry) RegisterElement(el types.Element) {
	r.registered = append(r.registered, el.ID)
}

func (r *mockRegistry) SetElementState(id string, state types.LifecycleState) {
	r.states[id] = state
}

func (r *mockRegistry) UnregisterElement(id string) {
	r.unregistered = append(r.unregistered, id)
}

// mockResolver 模拟内容解析协作者
type mockResolver struct {
	resolved any
	err      error
	calls    int
}

func (m *mockResolver) Resolve(_ context.Context, source any, _ interfaces.Capabilities) (any, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.resolved != nil {
		return m.resolved, nil
	}
	return source, nil
}

// ============================================================================
// 接口契约测试
// ============================================================================

// TestManager_ImplementsInterface 验证 Manager 实现接口
func TestManager_ImplementsInterface(t *testing.T) {
	var _ interfaces.LifecycleManager = (*Manager)(nil)
}

// ============================================================================
// 基础功能测试
// ============================================================================

// TestManager_CreateElement 测试创建元素
func TestManager_CreateElement(t *testing.T) {
	m := NewManager(nil)

	el, err := m.CreateElement("el-1", types.KindImage, "payload", nil)
	require.NoError(t, err)
	assert.Equal(t, "el-1", el.ID)

	state, ok := m.GetElementState("el-1")
	require.True(t, ok)
	assert.Equal(t, types.StateCreated, state)
}

// TestManager_CreateElement_DuplicateID 测试重复 ID
func TestManager_CreateElement_DuplicateID(t *testing.T) {
	m := NewManager(nil)

	_, err := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, err)

	_, err = m.CreateElement("el-1", types.KindVideo, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicateID))
	assert.Equal(t, types.CodeValidation, types.CodeOf(err))
}

// TestManager_RegisterElement_WrongState 测试非 created 状态注册
func TestManager_RegisterElement_WrongState(t *testing.T) {
	m := NewManager(nil)

	el, err := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.RegisterElement(el))

	err = m.RegisterElement(el)
	require.Error(t, err)
	assert.Equal(t, types.CodeState, types.CodeOf(err))
}

// TestManager_ActivateElement 测试激活路径
func TestManager_ActivateElement(t *testing.T) {
	m := NewManager(nil)

	el, _ := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, m.RegisterElement(el))
	require.NoError(t, m.ActivateElement("el-1"))

	state, _ := m.GetElementState("el-1")
	assert.Equal(t, types.StateActive, state)

	// suspended → active 也允许
	require.NoError(t, m.SuspendElement("el-1"))
	require.NoError(t, m.ActivateElement("el-1"))

	// 未知 ID
	err := m.ActivateElement("ghost")
	assert.Equal(t, types.CodeNotFound, types.CodeOf(err))
}

// TestManager_SuspendElement_NotActive 测试非 active 挂起
func TestManager_SuspendElement_NotActive(t *testing.T) {
	m := NewManager(nil)

	el, _ := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, m.RegisterElement(el))

	err := m.SuspendElement("el-1")
	require.Error(t, err)
	assert.Equal(t, types.CodeState, types.CodeOf(err))
}

// ============================================================================
// 内容更新测试
// ============================================================================

// TestManager_UpdateElementContent 测试内容更新成功路径
func TestManager_UpdateElementContent(t *testing.T) {
	m := NewManager(nil)
	resolver := &mockResolver{resolved: "normalized"}
	m.SetContentResolver(resolver, interfaces.Capabilities{})

	el, _ := m.CreateElement("el-1", types.KindImage, "v1", nil)
	require.NoError(t, m.RegisterElement(el))
	require.NoError(t, m.ActivateElement("el-1"))

	res := m.UpdateElementContent(context.Background(), "el-1", "v2")
	require.True(t, res.Success)
	assert.Equal(t, types.StateActive, res.NewState)
	assert.Equal(t, 1, resolver.calls)
}

// TestManager_UpdateElementContent_ResolverError 测试解析失败进入 error 状态
func TestManager_UpdateElementContent_ResolverError(t *testing.T) {
	m := NewManager(nil)
	m.SetContentResolver(&mockResolver{err: errors.New("bad payload")}, interfaces.Capabilities{})

	el, _ := m.CreateElement("el-1", types.KindImage, "v1", nil)
	require.NoError(t, m.RegisterElement(el))
	require.NoError(t, m.ActivateElement("el-1"))

	res := m.UpdateElementContent(context.Background(), "el-1", "v2")
	require.False(t, res.Success)
	assert.Equal(t, types.StateError, res.NewState)

	state, _ := m.GetElementState("el-1")
	assert.Equal(t, types.StateError, state)

	// error → active 可恢复
	require.NoError(t, m.ActivateElement("el-1"))
}

// TestManager_UpdateElementContent_Suspended 测试挂起元素更新失败且状态不变
func TestManager_UpdateElementContent_Suspended(t *testing.T) {
	m := NewManager(nil)

	el, _ := m.CreateElement("el-1", types.KindImage, "v1", nil)
	require.NoError(t, m.RegisterElement(el))
	require.NoError(t, m.ActivateElement("el-1"))
	require.NoError(t, m.SuspendElement("el-1"))

	var events []types.LifecycleEvent
	m.SubscribeToLifecycle(func(evt types.LifecycleEvent) {
		events = append(events, evt)
	})

	res := m.UpdateElementContent(context.Background(), "el-1", "v2")
	require.False(t, res.Success)
	assert.Equal(t, types.CodeState, res.Code)

	state, _ := m.GetElementState("el-1")
	assert.Equal(t, types.StateSuspended, state)
	assert.Empty(t, events, "failed update must not emit lifecycle events")
}

// TestManager_UpdateElementContent_Unknown 测试未知元素更新
func TestManager_UpdateElementContent_Unknown(t *testing.T) {
	m := NewManager(nil)

	res := m.UpdateElementContent(context.Background(), "ghost", "v2")
	require.False(t, res.Success)
	assert.Equal(t, types.CodeNotFound, res.Code)
}

// blockingResolver 在 Resolve 中阻塞直至放行
type blockingResolver struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingResolver) Resolve(_ context.Context, source any, _ interfaces.Capabilities) (any, error) {
	close(b.started)
	<-b.release
	return source, nil
}

// TestManager_ActivateElement_DuringUpdate 测试更新期间激活被拒绝
func TestManager_ActivateElement_DuringUpdate(t *testing.T) {
	m := NewManager(nil)
	resolver := &blockingResolver{started: make(chan struct{}), release: make(chan struct{})}
	m.SetContentResolver(resolver, interfaces.Capabilities{})

	el, err := m.CreateElement("el-1", types.KindImage, "v1", nil)
	require.NoError(t, err)
	require.NoError(t, m.RegisterElement(el))
	require.NoError(t, m.ActivateElement("el-1"))

	resultCh := make(chan types.OpResult, 1)
	go func() {
		resultCh <- m.UpdateElementContent(context.Background(), "el-1", "v2")
	}()

	<-resolver.started
	state, ok := m.GetElementState("el-1")
	require.True(t, ok)
	require.Equal(t, types.StateUpdating, state)

	// updating 不在激活操作的允许源状态集合中
	err = m.ActivateElement("el-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidTransition)
	assert.Equal(t, types.CodeState, types.CodeOf(err))

	// 更新不受干扰，正常提交
	close(resolver.release)
	res := <-resultCh
	assert.True(t, res.Success)
	assert.Equal(t, types.StateActive, res.NewState)

	state, _ = m.GetElementState("el-1")
	assert.Equal(t, types.StateActive, state)
}

// TestManager_UpdateElementContent_DestroyedDuring 测试更新期间销毁
func TestManager_UpdateElementContent_DestroyedDuring(t *testing.T) {
	m := NewManager(nil)
	resolver := &blockingResolver{started: make(chan struct{}), release: make(chan struct{})}
	m.SetContentResolver(resolver, interfaces.Capabilities{})

	el, err := m.CreateElement("el-1", types.KindImage, "v1", nil)
	require.NoError(t, err)
	require.NoError(t, m.RegisterElement(el))
	require.NoError(t, m.ActivateElement("el-1"))

	resultCh := make(chan types.OpResult, 1)
	go func() {
		resultCh <- m.UpdateElementContent(context.Background(), "el-1", "v2")
	}()

	<-resolver.started
	require.NoError(t, m.DestroyElement("el-1"))

	close(resolver.release)
	res := <-resultCh
	require.False(t, res.Success)
	assert.Equal(t, types.CodeDestroyed, res.Code)
	assert.Equal(t, types.StateDestroyed, res.NewState)
}

// ============================================================================
// 销毁测试
// ============================================================================

// TestManager_DestroyElement_Idempotent 测试销毁幂等
func TestManager_DestroyElement_Idempotent(t *testing.T) {
	m := NewManager(nil)

	var destroyed int
	m.SubscribeToLifecycle(func(evt types.LifecycleEvent) {
		if evt.Type == types.LifecycleDestroyed {
			destroyed++
		}
	})

	el, _ := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, m.RegisterElement(el))

	require.NoError(t, m.DestroyElement("el-1"))
	require.NoError(t, m.DestroyElement("el-1"))
	assert.Equal(t, 1, destroyed, "repeat destroy must not re-emit")

	// 已销毁元素不可再激活
	err := m.ActivateElement("el-1")
	assert.Equal(t, types.CodeDestroyed, types.CodeOf(err))
}

// TestManager_DestroyElement_Unregisters 测试销毁时从注册表移除
func TestManager_DestroyElement_Unregisters(t *testing.T) {
	reg := newMockRegistry()
	m := NewManager(reg)

	el, _ := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, m.RegisterElement(el))
	assert.Equal(t, []string{"el-1"}, reg.registered)

	require.NoError(t, m.DestroyElement("el-1"))
	assert.Equal(t, []string{"el-1"}, reg.unregistered)
}

// ============================================================================
// 统计测试
// ============================================================================

// TestManager_GetLifecycleStats 测试各状态计数之和等于总数
func TestManager_GetLifecycleStats(t *testing.T) {
	m := NewManager(nil)

	for _, id := range []string{"a", "b", "c", "d"} {
		el, err := m.CreateElement(id, types.KindImage, nil, nil)
		require.NoError(t, err)
		require.NoError(t, m.RegisterElement(el))
	}
	require.NoError(t, m.ActivateElement("a"))
	require.NoError(t, m.ActivateElement("b"))
	require.NoError(t, m.SuspendElement("b"))
	require.NoError(t, m.DestroyElement("c"))

	stats := m.GetLifecycleStats()
	assert.Equal(t, 4, stats.Total)

	sum := 0
	for _, n := range stats.PerState {
		sum += n
	}
	assert.Equal(t, stats.Total, sum)
	assert.Equal(t, 1, stats.PerState[types.StateActive])
	assert.Equal(t, 1, stats.PerState[types.StateSuspended])
	assert.Equal(t, 1, stats.PerState[types.StateRegistered])
	assert.Equal(t, 1, stats.PerState[types.StateDestroyed])
}

// ============================================================================
// 订阅测试
// ============================================================================

// TestManager_SubscriberOrder 测试按注册顺序同步投递
func TestManager_SubscriberOrder(t *testing.T) {
	m := NewManager(nil)

	var order []int
	m.SubscribeToLifecycle(func(types.LifecycleEvent) { order = append(order, 1) })
	m.SubscribeToLifecycle(func(types.LifecycleEvent) { order = append(order, 2) })
	m.SubscribeToLifecycle(func(types.LifecycleEvent) { order = append(order, 3) })

	_, err := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, order)
}

// TestManager_SubscriberPanic 测试订阅者 panic 不中断投递
func TestManager_SubscriberPanic(t *testing.T) {
	m := NewManager(nil)

	var reached bool
	m.SubscribeToLifecycle(func(types.LifecycleEvent) { panic("boom") })
	m.SubscribeToLifecycle(func(types.LifecycleEvent) { reached = true })

	_, err := m.CreateElement("el-1", types.KindImage, nil, nil)
	require.NoError(t, err)
	assert.True(t, reached, "panic in one subscriber must not abort delivery")
}

// TestManager_Unsubscribe 测试取消订阅
func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager(nil)

	var count int
	unsub := m.SubscribeToLifecycle(func(types.LifecycleEvent) { count++ })

	_, _ = m.CreateElement("el-1", types.KindImage, nil, nil)
	assert.Equal(t, 1, count)

	unsub()
	_, _ = m.CreateElement("el-2", types.KindImage, nil, nil)
	assert.Equal(t, 1, count)

	// 重复取消订阅安全
	unsub()
}

// ============================================================================
// 场景测试
// ============================================================================

// TestManager_FullScenario 测试完整生命周期场景
//
// create → register → activate → update → suspend →
// update(失败，状态不变) → activate → destroy
func TestManager_FullScenario(t *testing.T) {
	m := NewManager(nil)

	var events []types.LifecycleEventType
	m.SubscribeToLifecycle(func(evt types.LifecycleEvent) {
		events = append(events, evt.Type)
	})

	el, err := m.CreateElement("el-1", types.KindVideo, "v1", nil)
	require.NoError(t, err)
	require.NoError(t, m.RegisterElement(el))
	require.NoError(t, m.ActivateElement("el-1"))

	res := m.UpdateElementContent(context.Background(), "el-1", "v2")
	require.True(t, res.Success)

	require.NoError(t, m.SuspendElement("el-1"))

	res = m.UpdateElementContent(context.Background(), "el-1", "v3")
	require.False(t, res.Success)
	state, _ := m.GetElementState("el-1")
	assert.Equal(t, types.StateSuspended, state)

	require.NoError(t, m.ActivateElement("el-1"))
	require.NoError(t, m.DestroyElement("el-1"))

	want := []types.LifecycleEventType{
		types.LifecycleCreated,
		types.LifecycleRegistered,
		types.LifecycleActivated,
		types.LifecycleUpdating,
		types.LifecycleActivated,
		types.LifecycleSuspended,
		// 失败的更新不产生事件
		types.LifecycleActivated,
		types.LifecycleDestroyed,
	}
	assert.Equal(t, want, events)
}

// ============================================================================
// 并发测试
// ============================================================================

// TestManager_ConcurrentDistinctIDs 测试不同 ID 的并发操作
func TestManager_ConcurrentDistinctIDs(t *testing.T) {
	m := NewManager(nil)

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			id := string(rune('a' + n))
			el, err := m.CreateElement(id, types.KindImage, nil, nil)
			if err != nil {
				t.Errorf("CreateElement(%s) failed: %v", id, err)
				return
			}
			if err := m.RegisterElement(el); err != nil {
				t.Errorf("RegisterElement(%s) failed: %v", id, err)
				return
			}
			if err := m.ActivateElement(id); err != nil {
				t.Errorf("ActivateElement(%s) failed: %v", id, err)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	stats := m.GetLifecycleStats()
	assert.Equal(t, 8, stats.Total)
	assert.Equal(t, 8, stats.PerState[types.StateActive])
}
