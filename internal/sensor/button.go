package sensor

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sched"
)

// Button events. Multi carries the press count; press and double carry it too.
const (
	Down   event.Name = "down"
	Up     event.Name = "up"
	Press  event.Name = "press"
	Double event.Name = "double"
	Multi  event.Name = "multi"
	Long   event.Name = "long"
)

var pressNames = [...]event.Name{Press, Double, Multi}

type ButtonOptions struct {
	// LongPress is how long the button must be held to report long.
	LongPress time.Duration `yaml:"long_press" toml:"long_press"`
	// MultiPress is the longest gap between presses of one sequence.
	MultiPress time.Duration `yaml:"multi_press" toml:"multi_press"`
	// Immediate reports the sequence after every down instead of once it is
	// over.
	Immediate bool `yaml:"immediate" toml:"immediate"`
}

func (o *ButtonOptions) setDefaults() {
	if o.LongPress <= 0 {
		o.LongPress = 600 * time.Millisecond
	}
	if o.MultiPress <= 0 {
		o.MultiPress = 300 * time.Millisecond
	}
}

// Button classifies raw down/up edges into press gestures.
type Button struct {
	*event.Emitter

	sched sched.Scheduler
	opts  ButtonOptions

	pressedAt  time.Duration
	releasedAt time.Duration
	everDown   bool
	count      int

	longTimer  sched.Cancel
	multiTimer sched.Cancel
}

func NewButton(s sched.Scheduler, opts ButtonOptions) *Button {
	opts.setDefaults()
	return &Button{Emitter: &event.Emitter{}, sched: s, opts: opts, count: 1}
}

// Down feeds a press edge.
func (b *Button) Down() {
	b.Emit(Down, nil)
	now := b.sched.Now()
	if b.everDown && now-b.pressedAt < b.opts.MultiPress {
		b.count++
	} else {
		b.count = 1
	}
	b.pressedAt, b.everDown = now, true

	if b.opts.Immediate {
		b.report()
	} else {
		stop(&b.multiTimer)
		b.multiTimer = b.sched.After(b.opts.MultiPress, b.settle)
	}
	stop(&b.longTimer)
	b.longTimer = b.sched.After(b.opts.LongPress, b.long)
}

// Up feeds a release edge.
func (b *Button) Up() {
	b.Emit(Up, nil)
	b.releasedAt = b.sched.Now()
	held := b.releasedAt - b.pressedAt
	if held >= b.opts.LongPress {
		return
	}
	stop(&b.longTimer)
	if !b.opts.Immediate && held > b.opts.MultiPress {
		b.settle()
	}
}

func (b *Button) long() {
	b.longTimer = nil
	b.Emit(Long, nil)
	b.count = 1
}

func (b *Button) settle() {
	b.multiTimer = nil
	if b.releasedAt > b.pressedAt {
		b.report()
	}
}

func (b *Button) report() {
	i := b.count
	if i > len(pressNames) {
		i = len(pressNames)
	}
	b.Emit(pressNames[i-1], b.count)
}

func stop(c *sched.Cancel) {
	if *c != nil {
		(*c)()
		*c = nil
	}
}

// WatchPin feeds the edges of pin into b on the poster's goroutine until ctx
// is done. Edges closer than debounce to the previous one are dropped.
func WatchPin(ctx context.Context, pin gpio.PinIn, p sched.Poster, b *Button, debounce time.Duration) error {
	if err := pin.In(gpio.PullDown, gpio.BothEdges); err != nil {
		return err
	}
	last := pin.Read()
	var lastEdge time.Time
	for ctx.Err() == nil {
		if !pin.WaitForEdge(100 * time.Millisecond) {
			continue
		}
		l := pin.Read()
		if l == last || time.Since(lastEdge) < debounce {
			continue
		}
		last, lastEdge = l, time.Now()
		if l == gpio.High {
			p.Post(b.Down)
		} else {
			p.Post(b.Up)
		}
	}
	return ctx.Err()
}
