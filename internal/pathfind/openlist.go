package pathfind

import "container/heap"

// OpenList is the A* frontier: a binary min-heap of pool indices ordered by
// Total. Each node remembers its heap position so it can be rebalanced.
type OpenList struct {
	h nodeHeap
}

func NewOpenList(pool *Pool) *OpenList {
	return &OpenList{h: nodeHeap{pool: pool, items: make([]int32, 0, poolInitial)}}
}

func (o *OpenList) Len() int { return len(o.h.items) }

func (o *OpenList) Push(idx int32) { heap.Push(&o.h, idx) }

// PopMin removes and returns the node with the lowest Total.
func (o *OpenList) PopMin() int32 { return heap.Pop(&o.h).(int32) }

// Rebalance restores order after the node's Total decreased. Only the prefix
// of the backing array up to the node's position is re-heapified, so the node
// can move toward the root but nothing after it is revisited.
func (o *OpenList) Rebalance(idx int32) {
	pos := int(o.h.pool.At(idx).heapIdx)
	if pos < 0 || pos >= len(o.h.items) || o.h.items[pos] != idx {
		return
	}
	for pos > 0 {
		parent := (pos - 1) / 2
		if !o.h.Less(pos, parent) {
			break
		}
		o.h.Swap(pos, parent)
		pos = parent
	}
}

func (o *OpenList) Reset() { o.h.items = o.h.items[:0] }

type nodeHeap struct {
	pool  *Pool
	items []int32
}

func (h *nodeHeap) Len() int { return len(h.items) }

func (h *nodeHeap) Less(i, j int) bool {
	return h.pool.At(h.items[i]).Total < h.pool.At(h.items[j]).Total
}

func (h *nodeHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.pool.At(h.items[i]).heapIdx = int32(i)
	h.pool.At(h.items[j]).heapIdx = int32(j)
}

func (h *nodeHeap) Push(x any) {
	idx := x.(int32)
	h.pool.At(idx).heapIdx = int32(len(h.items))
	h.items = append(h.items, idx)
}

func (h *nodeHeap) Pop() any {
	n := len(h.items) - 1
	idx := h.items[n]
	h.items = h.items[:n]
	h.pool.At(idx).heapIdx = -1
	return idx
}
