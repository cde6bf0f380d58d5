package sensor

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sched"
)

// Proximity events.
const (
	Close event.Name = "close"
	Far   event.Name = "far"
)

const (
	proximityWindow = 10
	flipFactor      = 2
)

// LightSource reads ambient light in [0,1].
type LightSource interface {
	Light() (float64, error)
}

// LightFunc adapts a function to LightSource.
type LightFunc func() (float64, error)

func (f LightFunc) Light() (float64, error) { return f() }

type ProximityOptions struct {
	// Freq is the sampling rate in Hz.
	Freq float64 `yaml:"freq" toml:"freq"`
}

// Proximity guesses that something is close when the light level drops well
// below its recent average. It does not work in dim rooms.
type Proximity struct {
	*event.Emitter

	sched sched.Scheduler
	src   LightSource
	opts  ProximityOptions
	log   zerolog.Logger

	window []float64
	n      int
	avg    float64
	spread float64
	close  bool
	cancel sched.Cancel
}

func NewProximity(s sched.Scheduler, src LightSource, opts ProximityOptions, log zerolog.Logger) *Proximity {
	if opts.Freq <= 0 {
		opts.Freq = 2
	}
	return &Proximity{Emitter: &event.Emitter{}, sched: s, src: src, opts: opts, log: log}
}

// Start resets the statistics and begins sampling.
func (p *Proximity) Start() {
	p.Stop()
	p.window = append(p.window[:0], 0.5)
	p.n = 1
	p.avg, p.spread = 0, 0
	p.close = false
	p.cancel = p.sched.Every(time.Duration(float64(time.Second)/p.opts.Freq), p.sample)
}

func (p *Proximity) Stop() { stop(&p.cancel) }

// Near reports whether an object is currently close.
func (p *Proximity) Near() bool { return p.close }

func (p *Proximity) sample() {
	l, err := p.src.Light()
	if err != nil {
		p.log.Warn().Err(err).Msg("light read")
		return
	}
	if !p.close {
		if p.avg-l > flipFactor*p.spread {
			p.close = true
			p.Emit(Close, l)
			return
		}
		p.update(l)
		return
	}
	if p.avg-l < flipFactor*p.spread {
		p.close = false
		p.Emit(Far, l)
	}
}

func (p *Proximity) update(l float64) {
	i := p.n % proximityWindow
	if i == len(p.window) {
		p.window = append(p.window, l)
	} else {
		p.window[i] = l
	}
	p.n++

	lo, hi, sum := 1.0, 0.0, 0.0
	for _, v := range p.window {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		sum += v
	}
	p.spread = hi - lo
	p.avg = sum / float64(len(p.window))
}
