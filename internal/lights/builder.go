package lights

import (
	"time"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sensor"
)

// AlphaStage is a program with its intensity envelope chosen.
type AlphaStage struct {
	r     *Runner
	alpha AlphaFunc
}

// ColorStage is a program with envelope and color model chosen.
type ColorStage struct {
	r     *Runner
	alpha AlphaFunc
	model colorModel
}

// Steady starts a program with constant intensity a.
func (r *Runner) Steady(a float64) *AlphaStage {
	return &AlphaStage{r: r, alpha: SteadyAlpha(a)}
}

// Pulsing starts a program that breathes between low and full intensity.
func (r *Runner) Pulsing(speed, low float64) *AlphaStage {
	return &AlphaStage{r: r, alpha: PulsingAlpha(speed, low)}
}

// Blinking starts a program that switches between low and full intensity.
func (r *Runner) Blinking(speed, low float64) *AlphaStage {
	return &AlphaStage{r: r, alpha: BlinkingAlpha(speed, low)}
}

// Flickering starts a program with noise-driven intensity.
func (r *Runner) Flickering(speed, low float64, seed int64) *AlphaStage {
	return &AlphaStage{r: r, alpha: FlickeringAlpha(speed, low, seed)}
}

// Envelope starts a program with a custom intensity envelope.
func (r *Runner) Envelope(fn AlphaFunc) *AlphaStage {
	return &AlphaStage{r: r, alpha: fn}
}

// Color shows a fixed color scaled by the envelope.
func (s *AlphaStage) Color(c color.RGB) *ColorStage {
	return s.with(rgbModel{c: c.Clamp()})
}

// Rainbow cycles the hue speed times per second.
func (s *AlphaStage) Rainbow(speed float64) *ColorStage {
	return s.with(rainbowModel{speed: normSpeed(speed)})
}

// DefaultPearlyTransition is the easing time of Pearly when none is given.
const DefaultPearlyTransition = 200 * time.Millisecond

// Pearly maps one axis of stream onto the hue, calibrating its range on the
// fly and easing towards each new reading over transition.
func (s *AlphaStage) Pearly(stream FeedbackStream, axis sensor.Axis, transition time.Duration) *ColorStage {
	if transition <= 0 {
		transition = DefaultPearlyTransition
	}
	steps := s.r.opts.StackFreq * transition.Seconds()
	return s.with(&pearlyModel{stream: stream, axis: axis, steps: steps, state: newPearlyState()})
}

func (s *AlphaStage) with(m colorModel) *ColorStage {
	return &ColorStage{r: s.r, alpha: s.alpha, model: m}
}

// For ends the program d after each activation.
func (s *ColorStage) For(d time.Duration) *Program {
	p := s.program(BoundFor)
	p.duration = d
	return p
}

// Until ends the program when evt fires on obs.
func (s *ColorStage) Until(obs event.Observable, evt event.Name) *Program {
	p := s.program(BoundUntil)
	p.untilObs, p.untilEvt = obs, evt
	return p
}

// UntilStopped runs the program until Stop is called.
func (s *ColorStage) UntilStopped() *Program {
	return s.program(BoundStopped)
}

func (s *ColorStage) program(b Bound) *Program {
	return &Program{
		runner: s.r,
		alpha:  s.alpha,
		model:  s.model,
		bound:  b,
	}
}
