package lights

import (
	"math"
	"time"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sensor"
)

// pearlySampleRate is the feedback rate requested while a pearly program runs.
const pearlySampleRate = 10

// FeedbackStream is a periodic vector sample source (e.g. a magnetometer)
// delivering sensor.Vec3 payloads as sensor.Sample events while acquired.
type FeedbackStream interface {
	event.Observable
	Acquire(rateHz float64)
	Release()
}

// colorModel turns elapsed time and the envelope's alpha into a color.
type colorModel interface {
	resolve(elapsed time.Duration, alpha float64) color.RGB
}

// stepper is implemented by models with per-tick state.
type stepper interface {
	step()
}

// lifecycle is implemented by models that hold external resources while active.
type lifecycle interface {
	start()
	stop()
}

type rgbModel struct{ c color.RGB }

func (m rgbModel) resolve(_ time.Duration, alpha float64) color.RGB {
	return m.c.Scale(alpha)
}

type rainbowModel struct{ speed float64 }

func (m rainbowModel) resolve(elapsed time.Duration, alpha float64) color.RGB {
	_, hue := math.Modf(elapsed.Seconds() * m.speed)
	return color.HSB(hue, 1, alpha)
}

// pearlyState tracks the auto-calibrated hue driven by one feedback axis.
type pearlyState struct {
	min, max float64
	target   float64
	current  float64
}

func newPearlyState() pearlyState {
	return pearlyState{min: math.Inf(1), max: math.Inf(-1)}
}

// observe widens the calibration range with v and retargets the hue.
func (s pearlyState) observe(v float64) pearlyState {
	s.max = math.Max(v, s.max)
	s.min = math.Min(v, s.min)
	if s.max != s.min {
		s.target = (v - s.min) / (s.max - s.min)
	}
	return s
}

// ease moves the current hue one step of steps towards the target.
func (s pearlyState) ease(steps float64) pearlyState {
	if steps < 1 {
		steps = 1
	}
	s.current += (s.target - s.current) / steps
	return s
}

type pearlyModel struct {
	stream FeedbackStream
	axis   sensor.Axis
	steps  float64

	state pearlyState
	sub   event.Subscription
}

func (m *pearlyModel) start() {
	m.state = newPearlyState()
	m.stream.Acquire(pearlySampleRate)
	m.sub = m.stream.On(sensor.Sample, func(ev event.Event) {
		if v, ok := ev.Value.(sensor.Vec3); ok {
			m.state = m.state.observe(v.Axis(m.axis))
		}
	})
}

func (m *pearlyModel) stop() {
	m.stream.RemoveListener(m.sub)
	m.sub = event.Subscription{}
	m.stream.Release()
}

func (m *pearlyModel) step() {
	m.state = m.state.ease(m.steps)
}

func (m *pearlyModel) resolve(_ time.Duration, alpha float64) color.RGB {
	return color.HSB(m.state.current, 1, alpha)
}
