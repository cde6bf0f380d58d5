package lights

import (
	"time"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/event"
)

// Bound is how a Program ends.
type Bound int

const (
	// BoundFor ends the program a fixed duration after activation.
	BoundFor Bound = iota
	// BoundUntil ends the program when a named event fires.
	BoundUntil
	// BoundStopped ends the program only on an explicit Stop.
	BoundStopped
)

func (b Bound) String() string {
	switch b {
	case BoundFor:
		return "for"
	case BoundUntil:
		return "until"
	case BoundStopped:
		return "until-stopped"
	default:
		return "unknown"
	}
}

// Program is one light animation: an intensity envelope, a color model and
// a termination condition. Programs are built from a Runner and activated on
// it with Now, After or When.
//
// All methods must be called from the Runner's scheduler goroutine.
type Program struct {
	runner *Runner
	name   string

	alpha AlphaFunc
	model colorModel

	bound    Bound
	duration time.Duration
	untilObs event.Observable
	untilEvt event.Name

	onStart []func(*Program)
	onStop  []func(*Program)

	startedAt  time.Duration
	terminated bool
	active     bool
	stops      int
}

// Named sets a label used in logs and state dumps.
func (p *Program) Named(name string) *Program {
	p.name = name
	return p
}

func (p *Program) Name() string { return p.name }

func (p *Program) Bound() Bound { return p.bound }

// OnStart registers fn to run each time the program is activated.
func (p *Program) OnStart(fn func(*Program)) *Program {
	p.onStart = append(p.onStart, fn)
	return p
}

// OnStop registers fn to run each time the program leaves the stack.
func (p *Program) OnStop(fn func(*Program)) *Program {
	p.onStop = append(p.onStop, fn)
	return p
}

// Now activates the program immediately.
func (p *Program) Now() *Program {
	if err := p.runner.Add(p); err != nil {
		p.runner.log.Error().Err(err).Str("program", p.name).Msg("activate")
	}
	return p
}

// After activates the program once d has elapsed.
func (p *Program) After(d time.Duration) *Program {
	p.runner.after(p, d)
	return p
}

// When activates the program every time evt fires on obs.
func (p *Program) When(obs event.Observable, evt event.Name) *Program {
	p.runner.when(p, obs, evt)
	return p
}

// Stop terminates the program; it leaves the stack on the next composition
// tick.
func (p *Program) Stop() {
	p.terminated = true
	p.stops++
}

// Dispose removes the program from its runner along with every trigger it
// owns.
func (p *Program) Dispose() { p.runner.Remove(p) }

func (p *Program) Terminated() bool { return p.terminated }

// Active reports whether the program is currently on the stack.
func (p *Program) Active() bool { return p.active }

// StartedAt is the scheduler time of the most recent activation.
func (p *Program) StartedAt() time.Duration { return p.startedAt }

// Elapsed is the time since the most recent activation.
func (p *Program) Elapsed(now time.Duration) time.Duration { return now - p.startedAt }

// Running reports whether the program should stay on the stack at now.
func (p *Program) Running(now time.Duration) bool {
	if p.terminated {
		return false
	}
	if p.bound == BoundFor && p.Elapsed(now) >= p.duration {
		return false
	}
	return true
}

// Color evaluates the program at now.
func (p *Program) Color(now time.Duration) color.RGB {
	elapsed := p.Elapsed(now)
	return p.model.resolve(elapsed, clamp01(p.alpha(elapsed))).Clamp()
}

func (p *Program) activate(now time.Duration) {
	p.startedAt = now
	p.terminated = false
	p.active = true
	if l, ok := p.model.(lifecycle); ok {
		l.start()
	}
	for _, fn := range p.onStart {
		fn(p)
	}
}

func (p *Program) deactivate() {
	if !p.active {
		return
	}
	p.active = false
	if l, ok := p.model.(lifecycle); ok {
		l.stop()
	}
	for _, fn := range p.onStop {
		fn(p)
	}
}

func (p *Program) step() {
	if s, ok := p.model.(stepper); ok {
		s.step()
	}
}
