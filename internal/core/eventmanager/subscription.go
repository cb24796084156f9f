// Package eventmanager 实现元素事件管理器
package eventmanager

import (
	"sync"

	"github.com/elemflow/go-elemflow/pkg/interfaces"
)

// ============================================================================
//                              订阅者集合
// ============================================================================

// elementSub 元素级订阅
type elementSub struct {
	id        int
	elementID string
	cb        interfaces.EventHandler
}

// globalSub 全局订阅
type globalSub struct {
	id int
	cb interfaces.EventHandler
}

// batchSub 批次订阅
type batchSub struct {
	id int
	cb interfaces.BatchHandler
}

// subscriberSet 订阅者集合
//
// 自带互斥锁，独立于 Manager 的状态锁：分发投递使用快照，
// 回调内部订阅/退订不会死锁，也不影响当前这一轮投递。
type subscriberSet struct {
	mu     sync.Mutex
	nextID int

	element []elementSub
	global  []globalSub
	batch   []batchSub
}

// newSubscriberSet 创建订阅者集合
func newSubscriberSet() *subscriberSet {
	return &subscriberSet{}
}

// AddElement 添加元素级订阅
func (s *subscriberSet) AddElement(elementID string, cb interfaces.EventHandler) interfaces.UnsubscribeFunc {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.element = append(s.element, elementSub{id: id, elementID: elementID, cb: cb})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.element {
			if sub.id == id {
				s.element = append(s.element[:i], s.element[i+1:]...)
				return
			}
		}
	}
}

// AddGlobal 添加全局订阅
func (s *subscriberSet) AddGlobal(cb interfaces.EventHandler) interfaces.UnsubscribeFunc {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.global = append(s.global, globalSub{id: id, cb: cb})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.global {
			if sub.id == id {
				s.global = append(s.global[:i], s.global[i+1:]...)
				return
			}
		}
	}
}

// AddBatch 添加批次订阅
func (s *subscriberSet) AddBatch(cb interfaces.BatchHandler) interfaces.UnsubscribeFunc {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.batch = append(s.batch, batchSub{id: id, cb: cb})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.batch {
			if sub.id == id {
				s.batch = append(s.batch[:i], s.batch[i+1:]...)
				return
			}
		}
	}
}

// Snapshot 复制三类订阅者列表
func (s *subscriberSet) Snapshot() ([]elementSub, []globalSub, []batchSub) {
	s.mu.Lock()
	defer s.mu.Unlock()

	element := make([]elementSub, len(s.element))
	copy(element, s.element)
	global := make([]globalSub, len(s.global))
	copy(global, s.global)
	batch := make([]batchSub, len(s.batch))
	copy(batch, s.batch)
	return element, global, batch
}
