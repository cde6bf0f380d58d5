// Package sched provides the single logical thread that every light tick,
// timer and event callback runs on. Callbacks run sequentially and to
// completion; nothing blocks, all waiting is expressed as a future callback.
package sched

import (
	"container/heap"
	"time"
)

// Cancel stops a scheduled callback. Calling it more than once is harmless.
type Cancel func()

// Scheduler is the clock and timer source used by the light runtime.
type Scheduler interface {
	// Now returns monotonic time elapsed since the scheduler's epoch.
	Now() time.Duration
	// Every runs fn each period, first one period from now.
	Every(period time.Duration, fn func()) Cancel
	// After runs fn once, delay from now.
	After(delay time.Duration, fn func()) Cancel
}

// Poster hands a closure to the scheduler's thread.
type Poster interface {
	Post(fn func())
}

type timer struct {
	at       time.Duration
	period   time.Duration
	seq      uint64
	fn       func()
	canceled bool
	index    int
}

// timerHeap orders timers by due time, then by scheduling order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at == h[j].at {
		return h[i].seq < h[j].seq
	}
	return h[i].at < h[j].at
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// queue is the timer bookkeeping shared by Loop and Virtual. Callers hold the
// owner's lock.
type queue struct {
	h   timerHeap
	seq uint64
}

func (q *queue) add(t *timer) {
	q.seq++
	t.seq = q.seq
	heap.Push(&q.h, t)
}

func (q *queue) cancel(t *timer) {
	if t.canceled {
		return
	}
	t.canceled = true
	if t.index >= 0 {
		heap.Remove(&q.h, t.index)
	}
}

// peek returns the next live timer or nil.
func (q *queue) peek() *timer {
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0]
}

// popDue removes the earliest timer due at or before now and returns its
// callback. Periodic timers are re-queued at their next period boundary after
// now, so missed periods are skipped rather than replayed.
func (q *queue) popDue(now time.Duration) func() {
	t := q.peek()
	if t == nil || t.at > now {
		return nil
	}
	heap.Pop(&q.h)
	if t.period > 0 {
		for t.at <= now {
			t.at += t.period
		}
		q.add(t)
	} else {
		t.canceled = true
	}
	return t.fn
}
