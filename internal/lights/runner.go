package lights

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/led"
	"github.com/coreman2200/puckglow/internal/sched"
)

// AfterPolicy controls what a delayed activation does with a program that was
// stopped before the delay elapsed.
type AfterPolicy string

const (
	// AfterAlways activates regardless; the activation clears the stop.
	AfterAlways AfterPolicy = "always"
	// AfterSkipStopped drops the activation if the program was stopped.
	AfterSkipStopped AfterPolicy = "skip-stopped"
)

// ParseAfterPolicy validates s; empty selects AfterAlways.
func ParseAfterPolicy(s string) (AfterPolicy, error) {
	switch AfterPolicy(s) {
	case "", AfterAlways:
		return AfterAlways, nil
	case AfterSkipStopped:
		return AfterSkipStopped, nil
	default:
		return "", fmt.Errorf("unknown after policy %q", s)
	}
}

const (
	DefaultFreq         = 60
	DefaultStackFreq    = 30
	DefaultBlipDuration = 100 * time.Millisecond
)

var ErrNoDriver = errors.New("lights: nil driver")

// Options configures a Runner. Zero values select the defaults.
type Options struct {
	Blend       color.BlendMode
	Freq        float64 // output ticks per second
	StackFreq   float64 // composition ticks per second
	AfterPolicy AfterPolicy
	// Debug warns whenever a program without a time or event bound is
	// activated.
	Debug bool

	BlipColor    color.RGB
	BlipDuration time.Duration

	Log zerolog.Logger
}

func (o *Options) setDefaults() {
	if o.Blend == "" {
		o.Blend = color.Normal
	}
	if o.Freq <= 0 {
		o.Freq = DefaultFreq
	}
	if o.StackFreq <= 0 {
		o.StackFreq = DefaultStackFreq
	}
	if o.AfterPolicy == "" {
		o.AfterPolicy = AfterAlways
	}
	if o.BlipColor == (color.RGB{}) {
		o.BlipColor = color.Red
	}
	if o.BlipDuration <= 0 {
		o.BlipDuration = DefaultBlipDuration
	}
}

type trigger struct {
	p   *Program
	obs event.Observable
	sub event.Subscription
}

// State is a point-in-time view of a Runner.
type State struct {
	Running bool            `json:"running"`
	Blend   color.BlendMode `json:"blend"`
	Color   color.RGB       `json:"color"`
	Stack   []string        `json:"stack"`
	When    int             `json:"when"`
	Until   int             `json:"until"`
}

// Runner owns the active program stack and drives the LED channels from it.
// A composition tick filters ended programs and resolves the blended color;
// an independent output tick writes that color to the driver. Both ticks run
// only while at least one program is active.
//
// Runner is not safe for concurrent use; every call, including event
// listeners that activate programs, must happen on the scheduler goroutine.
type Runner struct {
	sched sched.Scheduler
	drv   led.Driver
	opts  Options
	log   zerolog.Logger

	stack []*Program
	whens []trigger
	until []trigger

	running    bool
	blend      color.BlendFunc
	color      color.RGB
	stopStack  sched.Cancel
	stopOutput sched.Cancel
}

// NewRunner validates opts and returns an idle Runner.
func NewRunner(s sched.Scheduler, drv led.Driver, opts Options) (*Runner, error) {
	if drv == nil {
		return nil, ErrNoDriver
	}
	opts.setDefaults()
	if _, err := ParseAfterPolicy(string(opts.AfterPolicy)); err != nil {
		return nil, err
	}
	r := &Runner{
		sched: s,
		drv:   drv,
		opts:  opts,
		log:   opts.Log.With().Str("component", "lights").Logger(),
	}
	if err := r.resolveBlend(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Runner) resolveBlend() error {
	if r.opts.Blend == color.Normal {
		r.blend = nil
		return nil
	}
	f, err := color.Blend(r.opts.Blend)
	if err != nil {
		return err
	}
	r.blend = f
	return nil
}

// SetBlend switches the blend mode; it takes effect on the next composition
// tick.
func (r *Runner) SetBlend(mode color.BlendMode) error {
	prev := r.opts.Blend
	r.opts.Blend = mode
	if err := r.resolveBlend(); err != nil {
		r.opts.Blend = prev
		return err
	}
	return nil
}

func (r *Runner) Blend() color.BlendMode { return r.opts.Blend }

// Add pushes p on top of the stack and starts the ticks if needed. A program
// that is already on the stack keeps its place and its start time.
func (r *Runner) Add(p *Program) error {
	if p.runner != r {
		return fmt.Errorf("lights: program %q belongs to another runner", p.name)
	}
	if r.indexOf(p) >= 0 {
		r.Start()
		return nil
	}

	r.stack = append(r.stack, p)
	if p.bound == BoundUntil {
		sub := p.untilObs.On(p.untilEvt, func(event.Event) { p.Stop() })
		r.until = append(r.until, trigger{p: p, obs: p.untilObs, sub: sub})
	}
	if p.bound == BoundStopped && r.opts.Debug {
		r.log.Warn().Str("program", p.name).Msg("activating program without bound; it runs until stopped")
	}
	r.log.Trace().Str("program", p.name).Stringer("bound", p.bound).Int("depth", len(r.stack)).Msg("add")

	p.activate(r.sched.Now())
	r.Start()
	return nil
}

// Remove takes p off the stack and drops every trigger it owns, including
// When activations.
func (r *Runner) Remove(p *Program) {
	if i := r.indexOf(p); i >= 0 {
		r.stack = append(r.stack[:i], r.stack[i+1:]...)
	}
	r.whens = dropTriggers(r.whens, p)
	r.finalize(p)
}

// Start begins the composition and output ticks. It is a no-op while running.
func (r *Runner) Start() {
	if r.running {
		return
	}
	r.running = true
	r.stopStack = r.sched.Every(period(r.opts.StackFreq), r.compose)
	r.stopOutput = r.sched.Every(period(r.opts.Freq), r.output)
	r.log.Debug().Float64("freq", r.opts.Freq).Float64("stack_freq", r.opts.StackFreq).Msg("start")
}

// Stop cancels both ticks, resets the color to black and turns the LEDs off.
// Programs stay on the stack; the next Add of any program, stacked or not,
// starts the ticks again.
func (r *Runner) Stop() {
	if !r.running {
		return
	}
	r.running = false
	r.stopStack()
	r.stopOutput()
	r.color = color.Black
	if err := r.drv.ResetAll(); err != nil {
		r.log.Warn().Err(err).Msg("reset channels")
	}
	r.log.Debug().Msg("stop")
}

func (r *Runner) Running() bool { return r.running }

// Color is the most recently composed color.
func (r *Runner) Color() color.RGB { return r.color }

// Stack returns the active programs, bottom first.
func (r *Runner) Stack() []*Program {
	return append([]*Program(nil), r.stack...)
}

func (r *Runner) State() State {
	st := State{
		Running: r.running,
		Blend:   r.opts.Blend,
		Color:   r.color,
		Stack:   make([]string, 0, len(r.stack)),
		When:    len(r.whens),
		Until:   len(r.until),
	}
	for _, p := range r.stack {
		st.Stack = append(st.Stack, p.name)
	}
	return st
}

// Blip flashes c for d. Zero arguments use the configured defaults.
func (r *Runner) Blip(c color.RGB, d time.Duration) *Program {
	if c == (color.RGB{}) {
		c = r.opts.BlipColor
	}
	if d <= 0 {
		d = r.opts.BlipDuration
	}
	return r.Steady(1).Color(c).For(d).Named("blip").Now()
}

func (r *Runner) after(p *Program, d time.Duration) {
	stops := p.stops
	r.sched.After(d, func() {
		if r.opts.AfterPolicy == AfterSkipStopped && p.stops != stops {
			r.log.Debug().Str("program", p.name).Msg("delayed activation skipped, program stopped")
			return
		}
		if err := r.Add(p); err != nil {
			r.log.Error().Err(err).Str("program", p.name).Msg("delayed activation")
		}
	})
}

func (r *Runner) when(p *Program, obs event.Observable, evt event.Name) {
	sub := obs.On(evt, func(event.Event) {
		if err := r.Add(p); err != nil {
			r.log.Error().Err(err).Str("program", p.name).Str("event", string(evt)).Msg("triggered activation")
		}
	})
	r.whens = append(r.whens, trigger{p: p, obs: obs, sub: sub})
}

func (r *Runner) compose() {
	now := r.sched.Now()

	live := make([]*Program, 0, len(r.stack))
	var ended []*Program
	for _, p := range r.stack {
		if p.Running(now) {
			live = append(live, p)
		} else {
			ended = append(ended, p)
		}
	}
	r.stack = live
	// stop hooks may add programs back
	for _, p := range ended {
		r.finalize(p)
	}

	if len(r.stack) == 0 {
		r.Stop()
		return
	}
	for _, p := range r.stack {
		p.step()
	}
	r.color = r.resolve(now)
}

func (r *Runner) resolve(now time.Duration) color.RGB {
	if r.blend == nil {
		return r.stack[len(r.stack)-1].Color(now)
	}
	layers := make([]color.RGB, len(r.stack))
	for i, p := range r.stack {
		layers[i] = p.Color(now)
	}
	return color.Fold(r.blend, layers)
}

func (r *Runner) output() {
	for ch, v := range r.color.Channels() {
		if err := r.drv.SetChannel(ch, v); err != nil {
			r.log.Warn().Err(err).Int("channel", ch).Msg("set channel")
		}
	}
}

// finalize releases the until listener of p and fires its stop hooks once.
func (r *Runner) finalize(p *Program) {
	r.until = dropTriggers(r.until, p)
	p.deactivate()
	r.log.Trace().Str("program", p.name).Int("depth", len(r.stack)).Msg("remove")
}

func (r *Runner) indexOf(p *Program) int {
	for i, q := range r.stack {
		if q == p {
			return i
		}
	}
	return -1
}

func dropTriggers(ts []trigger, p *Program) []trigger {
	out := ts[:0]
	for _, t := range ts {
		if t.p == p {
			t.obs.RemoveListener(t.sub)
			continue
		}
		out = append(out, t)
	}
	return out
}

func period(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}
