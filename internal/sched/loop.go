package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Loop is the real-time Scheduler. All callbacks run on the goroutine that
// called Run.
type Loop struct {
	epoch time.Time
	log   zerolog.Logger

	mu   sync.Mutex
	q    queue
	wake chan struct{}
}

var (
	_ Scheduler = (*Loop)(nil)
	_ Poster    = (*Loop)(nil)
)

// NewLoop returns a Loop whose epoch is now.
func NewLoop(log zerolog.Logger) *Loop {
	return &Loop{
		epoch: time.Now(),
		log:   log,
		wake:  make(chan struct{}, 1),
	}
}

func (l *Loop) Now() time.Duration { return time.Since(l.epoch) }

func (l *Loop) Every(period time.Duration, fn func()) Cancel {
	if period <= 0 {
		period = time.Millisecond
	}
	return l.schedule(&timer{at: l.Now() + period, period: period, fn: fn})
}

func (l *Loop) After(delay time.Duration, fn func()) Cancel {
	return l.schedule(&timer{at: l.Now() + delay, fn: fn})
}

// Post runs fn on the loop as soon as possible. Safe from any goroutine.
func (l *Loop) Post(fn func()) { l.After(0, fn) }

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) schedule(t *timer) Cancel {
	l.mu.Lock()
	l.q.add(t)
	l.mu.Unlock()
	l.signal()
	return func() {
		l.mu.Lock()
		l.q.cancel(t)
		l.mu.Unlock()
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run dispatches callbacks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Debug().Msg("loop started")
	defer l.log.Debug().Msg("loop stopped")

	t := time.NewTimer(time.Hour)
	defer t.Stop()
	for {
		// drain everything that is due
		for {
			l.mu.Lock()
			fn := l.q.popDue(l.Now())
			l.mu.Unlock()
			if fn == nil {
				break
			}
			fn()
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}

		wait := time.Hour
		l.mu.Lock()
		if next := l.q.peek(); next != nil {
			wait = next.at - l.Now()
		}
		l.mu.Unlock()
		if wait < 0 {
			wait = 0
		}
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
		t.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-t.C:
		}
	}
}
