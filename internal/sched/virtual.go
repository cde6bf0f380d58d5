package sched

import (
	"sync"
	"time"
)

// Virtual is a manually advanced Scheduler. Time only moves inside Advance,
// which makes tick-level behavior reproducible in tests and simulations.
type Virtual struct {
	mu  sync.Mutex
	now time.Duration
	q   queue
}

var (
	_ Scheduler = (*Virtual)(nil)
	_ Poster    = (*Virtual)(nil)
)

func NewVirtual() *Virtual { return &Virtual{} }

func (v *Virtual) Now() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) Every(period time.Duration, fn func()) Cancel {
	if period <= 0 {
		period = time.Millisecond
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.schedule(&timer{at: v.now + period, period: period, fn: fn})
}

func (v *Virtual) After(delay time.Duration, fn func()) Cancel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.schedule(&timer{at: v.now + delay, fn: fn})
}

// Post queues fn to run at the current time on the next Advance.
func (v *Virtual) Post(fn func()) { v.After(0, fn) }

func (v *Virtual) schedule(t *timer) Cancel {
	v.q.add(t)
	return func() {
		v.mu.Lock()
		v.q.cancel(t)
		v.mu.Unlock()
	}
}

// Advance moves time forward by d, running every callback that falls due on
// the way in time order. Callbacks scheduled while advancing run too if they
// fall inside the window.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now + d
	for {
		next := v.q.peek()
		if next == nil || next.at > target {
			break
		}
		if next.at > v.now {
			v.now = next.at
		}
		fn := v.q.popDue(v.now)
		v.mu.Unlock()
		fn()
		v.mu.Lock()
	}
	v.now = target
	v.mu.Unlock()
}

// Pending returns the number of scheduled callbacks.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.q.h)
}
