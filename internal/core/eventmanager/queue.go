// Package eventmanager 实现元素事件管理器
package eventmanager

import (
	"github.com/elemflow/go-elemflow/pkg/types"
)

// ============================================================================
//                              优先级事件队列
// ============================================================================

// dedupKey 去重键：同一元素上同一类型的事件视为重复
type dedupKey struct {
	elementID string
	eventType types.EventType
}

// queueEntry 队列条目
//
// 去重命中时原地替换 event，条目保留其原始队列位置，
// 避免反复去重导致的优先级饥饿。
type queueEntry struct {
	event types.ElementEvent
	seq   uint64
}

// eventQueue 优先级事件队列
//
// 每个优先级一个 FIFO 序列；排空时严格按 immediate > high >
// normal > low 的顺序，同级内保持提交顺序。
// 非并发安全，由 Manager 的互斥锁保护。
type eventQueue struct {
	maxSize int
	dedup   bool

	seq   uint64
	size  int
	tiers map[types.Priority][]*queueEntry
	index map[dedupKey]*queueEntry
}

// newEventQueue 创建优先级事件队列
func newEventQueue(maxSize int, dedup bool) *eventQueue {
	return &eventQueue{
		maxSize: maxSize,
		dedup:   dedup,
		tiers:   make(map[types.Priority][]*queueEntry),
		index:   make(map[dedupKey]*queueEntry),
	}
}

// Push 事件入队
//
// 去重开启时，与已排队未分发条目同 (elementID, eventType) 的新事件
// 原地替换旧条目的载荷（merged=true），不占新槽位。
// 队列已满时返回 types.ErrQueueFull，绝不丢弃已入队事件。
func (q *eventQueue) Push(event types.ElementEvent) (merged bool, err error) {
	key := dedupKey{elementID: event.ElementID, eventType: event.Type}

	if q.dedup {
		if entry, ok := q.index[key]; ok {
			entry.event = event
			return true, nil
		}
	}

	if q.maxSize > 0 && q.size >= q.maxSize {
		return false, types.ErrQueueFull
	}

	q.seq++
	entry := &queueEntry{event: event, seq: q.seq}
	prio := event.Metadata.Priority
	q.tiers[prio] = append(q.tiers[prio], entry)
	q.index[key] = entry
	q.size++
	return false, nil
}

// Drain 排空队列，返回按分发顺序排列的全部事件
func (q *eventQueue) Drain() []types.ElementEvent {
	if q.size == 0 {
		return nil
	}

	out := make([]types.ElementEvent, 0, q.size)
	for _, prio := range types.Priorities() {
		for _, entry := range q.tiers[prio] {
			out = append(out, entry.event)
		}
		delete(q.tiers, prio)
	}

	q.index = make(map[dedupKey]*queueEntry)
	q.size = 0
	return out
}

// Len 返回队列中的事件总数
func (q *eventQueue) Len() int {
	return q.size
}

// Stats 返回队列统计
func (q *eventQueue) Stats() types.QueueStats {
	stats := types.QueueStats{
		Total:       q.size,
		PerPriority: make(map[types.Priority]int),
	}
	for prio, entries := range q.tiers {
		if len(entries) > 0 {
			stats.PerPriority[prio] = len(entries)
		}
	}
	return stats
}
