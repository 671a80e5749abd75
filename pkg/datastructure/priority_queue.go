package datastructure

import (
	"errors"

	"golang.org/x/exp/constraints"
)

var (
	ErrEmptyHeap    = errors.New("heap is empty")
	ErrItemNotFound = errors.New("item not in heap")
)

type PriorityQueueNode[T constraints.Integer] struct {
	Rank float64
	Item T
}

// MinHeap binary heap priorityqueue keyed by (Rank, Item).
// equal ranks are popped in ascending Item order.
type MinHeap[T constraints.Integer] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
}

func NewMinHeap[T constraints.Integer]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) less(i, j int) bool {
	if h.heap[i].Rank != h.heap[j].Rank {
		return h.heap[i].Rank < h.heap[j].Rank
	}
	return h.heap[i].Item < h.heap[j].Item
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

// heapifyUp check apakah parent lebih besar, kalau iya swap lalu lanjut ke parent. O(logN)
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 {
		parent := (index - 1) / 2
		if !h.less(index, parent) {
			return
		}
		h.swap(index, parent)
		index = parent
	}
}

// heapifyDown swap dengan child terkecil sampai heap property terpenuhi. O(logN)
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := 2*index + 1
		right := 2*index + 2
		if left < len(h.heap) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.heap) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) IsEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Contains(item T) bool {
	_, ok := h.pos[item]
	return ok
}

// Insert adds a new item. inserting an item already in the heap updates its rank instead.
func (h *MinHeap[T]) Insert(node PriorityQueueNode[T]) {
	if idx, ok := h.pos[node.Item]; ok {
		old := h.heap[idx].Rank
		h.heap[idx].Rank = node.Rank
		if node.Rank < old {
			h.heapifyUp(idx)
		} else {
			h.heapifyDown(idx)
		}
		return
	}

	h.heap = append(h.heap, node)
	index := len(h.heap) - 1
	h.pos[node.Item] = index
	h.heapifyUp(index)
}

func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.IsEmpty() {
		return PriorityQueueNode[T]{}, ErrEmptyHeap
	}
	root := h.heap[0]
	last := len(h.heap) - 1
	h.swap(0, last)
	h.heap = h.heap[:last]
	delete(h.pos, root.Item)
	if len(h.heap) > 0 {
		h.heapifyDown(0)
	}
	return root, nil
}

// DecreaseKey lowers the rank of an item already in the heap.
func (h *MinHeap[T]) DecreaseKey(node PriorityQueueNode[T]) error {
	idx, ok := h.pos[node.Item]
	if !ok {
		return ErrItemNotFound
	}
	if node.Rank > h.heap[idx].Rank {
		return nil
	}
	h.heap[idx].Rank = node.Rank
	h.heapifyUp(idx)
	return nil
}
