// Package eventmanager 实现元素事件管理器
package eventmanager

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/elemflow/go-elemflow/pkg/types"
)

// ============================================================================
//                              分发历史
// ============================================================================

// defaultHistorySize 历史容量缺省值
const defaultHistorySize = 256

// history 已分发事件的有界历史
//
// 只追加、容量封顶；超出 maxHistorySize 后先淘汰最老的条目。
// 键为单调递增序号，纯追加访问下 LRU 淘汰退化为 FIFO，
// Keys() 返回最老到最新的顺序，有序读取无需额外排序。
// 非并发安全，由 Manager 的互斥锁保护。
type history struct {
	cache *lru.Cache[uint64, types.HistoryEntry]
	seq   uint64
}

// newHistory 创建有界历史
func newHistory(maxSize int) *history {
	if maxSize <= 0 {
		maxSize = defaultHistorySize
	}
	// 容量为正时 lru.New 不会失败
	cache, _ := lru.New[uint64, types.HistoryEntry](maxSize)
	return &history{cache: cache}
}

// Append 追加一条历史
func (h *history) Append(entry types.HistoryEntry) {
	h.seq++
	h.cache.Add(h.seq, entry)
}

// Entries 返回历史快照（最老在前）
func (h *history) Entries() []types.HistoryEntry {
	keys := h.cache.Keys()
	out := make([]types.HistoryEntry, 0, len(keys))
	for _, k := range keys {
		if entry, ok := h.cache.Peek(k); ok {
			out = append(out, entry)
		}
	}
	return out
}

// Len 返回当前历史条数
func (h *history) Len() int {
	return h.cache.Len()
}
