package spatialindex

// rtreeQueueItem is either an r-tree node (node != nil) or a vertex object.
type rtreeQueueItem struct {
	rank   float64
	node   *RtreeNode
	object VertexObject
}

// rtreeHeap binary heap priorityqueue keyed by (rank, node before object, object id).
type rtreeHeap struct {
	heap []rtreeQueueItem
}

func newRtreeHeap() *rtreeHeap {
	return &rtreeHeap{
		heap: make([]rtreeQueueItem, 0, 64),
	}
}

func (h *rtreeHeap) less(i, j int) bool {
	a, b := h.heap[i], h.heap[j]
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	aNode, bNode := a.node != nil, b.node != nil
	if aNode != bNode {
		return aNode
	}
	if aNode {
		return false
	}
	return a.object.ID < b.object.ID
}

func (h *rtreeHeap) Size() int {
	return len(h.heap)
}

func (h *rtreeHeap) Insert(item rtreeQueueItem) {
	h.heap = append(h.heap, item)
	index := len(h.heap) - 1

	for index != 0 {
		parent := (index - 1) / 2
		if !h.less(index, parent) {
			break
		}
		h.heap[parent], h.heap[index] = h.heap[index], h.heap[parent]
		index = parent
	}
}

// ExtractMin ambil nilai minimum dari min-heap (index 0) & pop dari heap. O(logN)
func (h *rtreeHeap) ExtractMin() (rtreeQueueItem, bool) {
	if len(h.heap) == 0 {
		return rtreeQueueItem{}, false
	}
	root := h.heap[0]
	last := len(h.heap) - 1
	h.heap[0] = h.heap[last]
	h.heap = h.heap[:last]
	index := 0

	for {
		smallest := index
		left := index*2 + 1
		right := index*2 + 2
		if left < len(h.heap) && h.less(left, smallest) {
			smallest = left
		}
		if right < len(h.heap) && h.less(right, smallest) {
			smallest = right
		}
		if smallest == index {
			break
		}
		h.heap[smallest], h.heap[index] = h.heap[index], h.heap[smallest]
		index = smallest
	}

	return root, true
}
