package sensor

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sched"
)

// Scroll wheel events. Notch carries the notch index of the new angle.
const (
	Plus       event.Name = "plus"
	Minus      event.Name = "minus"
	Notch      event.Name = "notch"
	Calibrated event.Name = "calibrated"
)

type ScrollWheelOptions struct {
	// Notches per full turn.
	Notches int `yaml:"notches" toml:"notches"`
	// Inverse reports clockwise turns as minus.
	Inverse bool `yaml:"inverse" toml:"inverse"`
	// Calibration is how long min/max are collected after Start.
	Calibration time.Duration `yaml:"calibration" toml:"calibration"`
	SampleRate  float64       `yaml:"sample_rate" toml:"sample_rate"`
	// Window is the moving average length.
	Window int `yaml:"window" toml:"window"`
}

func (o *ScrollWheelOptions) setDefaults() {
	if o.Notches <= 0 {
		o.Notches = 10
	}
	if o.Calibration <= 0 {
		o.Calibration = 4 * time.Second
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 5
	}
	if o.Window <= 0 {
		o.Window = 3
	}
}

// ScrollWheel emulates an incremental rotary encoder from magnetometer
// readings taken while the device is turned in one plane. Turn it a full
// circle during calibration.
type ScrollWheel struct {
	*event.Emitter

	sched sched.Scheduler
	feed  Feed
	opts  ScrollWheelOptions
	log   zerolog.Logger

	notch      float64
	lastNotch  float64
	angle      float64
	calibrated bool
	min, max   Vec3
	ys, zs     []float64
	n          int

	sub       event.Subscription
	calibrate sched.Cancel
	acquired  bool
}

func NewScrollWheel(s sched.Scheduler, feed Feed, opts ScrollWheelOptions, log zerolog.Logger) *ScrollWheel {
	opts.setDefaults()
	return &ScrollWheel{
		Emitter: &event.Emitter{},
		sched:   s,
		feed:    feed,
		opts:    opts,
		log:     log,
	}
}

// Start resets the wheel and begins calibration.
func (w *ScrollWheel) Start() {
	w.Stop()
	w.min = Vec3{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	w.max = Vec3{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	w.ys, w.zs, w.n = w.ys[:0], w.zs[:0], 0
	w.notch = 2 * math.Pi / float64(w.opts.Notches)
	w.angle, w.lastNotch = 0, 0
	w.calibrated = false
	w.calibrate = w.sched.After(w.opts.Calibration, w.finishCalibration)
	w.Resume()
}

// Resume restarts sampling after Stop, keeping calibration.
func (w *ScrollWheel) Resume() {
	if w.acquired {
		return
	}
	w.acquired = true
	w.sub = w.feed.On(Sample, func(ev event.Event) {
		if v, ok := ev.Value.(Vec3); ok {
			w.detect(v)
		}
	})
	w.feed.Acquire(w.opts.SampleRate)
}

// Stop pauses sampling and aborts a running calibration.
func (w *ScrollWheel) Stop() {
	stop(&w.calibrate)
	if !w.acquired {
		return
	}
	w.acquired = false
	w.feed.RemoveListener(w.sub)
	w.feed.Release()
}

func (w *ScrollWheel) Calibrated() bool { return w.calibrated }

// Angle is the last smoothed angle in radians.
func (w *ScrollWheel) Angle() float64 { return w.angle }

func (w *ScrollWheel) finishCalibration() {
	w.calibrate = nil
	w.calibrated = true
	w.lastNotch = w.angle
	w.log.Debug().
		Float64("min_y", w.min.Y).Float64("max_y", w.max.Y).
		Float64("min_z", w.min.Z).Float64("max_z", w.max.Z).
		Msg("scroll wheel calibrated")
	w.Emit(Calibrated, nil)
}

func (w *ScrollWheel) detect(m Vec3) {
	if !w.calibrated {
		w.min.Y, w.min.Z = math.Min(m.Y, w.min.Y), math.Min(m.Z, w.min.Z)
		w.max.Y, w.max.Z = math.Max(m.Y, w.max.Y), math.Max(m.Z, w.max.Z)
		return
	}
	spanY, spanZ := w.max.Y-w.min.Y, w.max.Z-w.min.Z
	if spanY <= 0 || spanZ <= 0 {
		return
	}

	i := w.n % w.opts.Window
	if len(w.ys) <= i {
		w.ys, w.zs = append(w.ys, m.Y), append(w.zs, m.Z)
	} else {
		w.ys[i], w.zs[i] = m.Y, m.Z
	}
	w.n++

	y := (mean(w.ys) - w.min.Y) / spanY
	z := (mean(w.zs) - w.min.Z) / spanZ
	w.angle = math.Atan2(z-0.5, y-0.5)

	dif := math.Abs(w.angle - w.lastNotch)
	cw := w.angle > w.lastNotch
	if dif > math.Pi {
		dif = math.Abs(dif - 2*math.Pi)
		cw = !cw
	}
	if dif <= w.notch {
		return
	}
	w.lastNotch = w.angle
	if cw != w.opts.Inverse {
		w.Emit(Plus, nil)
	} else {
		w.Emit(Minus, nil)
	}
	w.Emit(Notch, int(math.Floor(w.angle/w.notch)))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
