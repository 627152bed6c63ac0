package queue

import "container/heap"

// storage is the pluggable ordering discipline behind a Queue: FIFO, LIFO,
// or a heap.Interface-backed priority ordering. Queue itself only ever
// deals with "push an item" / "pop the next item" — which item is next is
// entirely storage's decision.
type storage[T any] interface {
	push(item T)
	pop() (T, bool)
	len() int
}

// fifoStorage pops items in the order they were pushed — the default
// discipline for Queue.
type fifoStorage[T any] struct {
	items []T
}

func (s *fifoStorage[T]) push(item T) {
	s.items = append(s.items, item)
}

func (s *fifoStorage[T]) pop() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	item := s.items[0]
	var zero T
	s.items[0] = zero // avoid retaining the popped value
	s.items = s.items[1:]
	return item, true
}

func (s *fifoStorage[T]) len() int {
	return len(s.items)
}

// lifoStorage pops the most recently pushed item first — backs LifoQueue.
type lifoStorage[T any] struct {
	items []T
}

func (s *lifoStorage[T]) push(item T) {
	s.items = append(s.items, item)
}

func (s *lifoStorage[T]) pop() (T, bool) {
	n := len(s.items)
	if n == 0 {
		var zero T
		return zero, false
	}
	item := s.items[n-1]
	var zero T
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return item, true
}

func (s *lifoStorage[T]) len() int {
	return len(s.items)
}

// heapEntry wraps a value so heapOrdering can track its heap index; the
// index is unused outside container/heap's own bookkeeping here because
// Queue never removes an arbitrary entry from storage, only the root.
type heapEntry[T any] struct {
	val T
	idx int
}

// heapOrdering adapts a caller-supplied less function to heap.Interface,
// the same pattern used to implement a priority-ordered semaphore wait
// queue: a slice of pointers plus Less/Swap/Push/Pop hooks around
// container/heap.
type heapOrdering[T any] struct {
	entries []*heapEntry[T]
	less    func(a, b T) bool
}

func (h heapOrdering[T]) Len() int { return len(h.entries) }

func (h heapOrdering[T]) Less(i, j int) bool {
	return h.less(h.entries[i].val, h.entries[j].val)
}

func (h heapOrdering[T]) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].idx = i
	h.entries[j].idx = j
}

func (h *heapOrdering[T]) Push(x any) {
	entry := x.(*heapEntry[T])
	entry.idx = len(h.entries)
	h.entries = append(h.entries, entry)
}

func (h *heapOrdering[T]) Pop() any {
	old := h.entries
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.idx = -1
	h.entries = old[:n-1]
	return entry
}

// heapStorage pops the highest-priority item first, where "highest
// priority" is whatever the less function orders to the front — backs
// PriorityQueue.
type heapStorage[T any] struct {
	h heapOrdering[T]
}

func newHeapStorage[T any](less func(a, b T) bool) *heapStorage[T] {
	return &heapStorage[T]{h: heapOrdering[T]{less: less}}
}

func (s *heapStorage[T]) push(item T) {
	heap.Push(&s.h, &heapEntry[T]{val: item})
}

func (s *heapStorage[T]) pop() (T, bool) {
	if s.h.Len() == 0 {
		var zero T
		return zero, false
	}
	entry := heap.Pop(&s.h).(*heapEntry[T])
	return entry.val, true
}

func (s *heapStorage[T]) len() int {
	return s.h.Len()
}
