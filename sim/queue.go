// Implements the time-ordered event queue backing the kernel loop.

package sim

import "container/heap"

// eventHeap implements heap.Interface and orders events by (Time, seq).
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(Event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// EventQueue holds all pending events of one simulation, ordered by
// (timestamp, insertion sequence). Same-timestamp events come out in the
// order they were pushed, so a fixed input trace always replays identically.
type EventQueue struct {
	heap eventHeap
}

// Len returns the number of pending events.
func (q *EventQueue) Len() int {
	return q.heap.Len()
}

// push inserts an event. The kernel has already stamped its sequence number.
func (q *EventQueue) push(ev Event) {
	heap.Push(&q.heap, ev)
}

// pop removes and returns the event with the smallest (timestamp, seq) key.
// The second return value is false if the queue is empty.
func (q *EventQueue) pop() (Event, bool) {
	if q.heap.Len() == 0 {
		return Event{}, false
	}
	return heap.Pop(&q.heap).(Event), true
}

// peekTime returns the timestamp of the earliest pending event.
func (q *EventQueue) peekTime() (int64, bool) {
	if q.heap.Len() == 0 {
		return 0, false
	}
	return q.heap[0].Time, true
}
