package led

import (
	"errors"
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/puckglow/internal/sched"
)

// GPIOOptions selects how intermediate intensities reach the pins.
type GPIOOptions struct {
	// PWMFreq enables hardware PWM at this frequency. Zero selects software
	// pulses.
	PWMFreq physic.Frequency
	// Pulse is the software pulse period, normally the output tick period.
	Pulse time.Duration
	// Sched times the falling edge of software pulses.
	Sched sched.Scheduler
}

// GPIO drives one pin per channel.
type GPIO struct {
	pins  []gpio.PinOut
	opts  GPIOOptions
	last  []float64
	lower []sched.Cancel
	// falling edges fail outside SetChannel; the next call reports them
	pending []error
}

var _ Driver = (*GPIO)(nil)

func NewGPIO(pins []gpio.PinOut, opts GPIOOptions) (*GPIO, error) {
	if len(pins) == 0 {
		return nil, errors.New("led: no pins")
	}
	if opts.PWMFreq <= 0 {
		if opts.Sched == nil {
			return nil, errors.New("led: software pulses need a scheduler")
		}
		if opts.Pulse <= 0 {
			opts.Pulse = time.Second / 60
		}
	}
	d := &GPIO{
		pins:  pins,
		opts:  opts,
		last:  make([]float64, len(pins)),
		lower: make([]sched.Cancel, len(pins)),
	}
	d.forget()
	return d, nil
}

// SetChannel drives ch to v. Errors from earlier software pulses are
// returned along with the result of this write.
func (d *GPIO) SetChannel(ch int, v float64) error {
	err := d.setChannel(ch, v)
	if len(d.pending) > 0 {
		err = errors.Join(append(d.pending, err)...)
		d.pending = nil
	}
	return err
}

func (d *GPIO) setChannel(ch int, v float64) error {
	if ch < 0 || ch >= len(d.pins) {
		return fmt.Errorf("led: channel %d out of range", ch)
	}
	p := d.pins[ch]
	switch {
	case v <= 0:
		return d.level(ch, 0, gpio.Low)
	case v >= 1:
		return d.level(ch, 1, gpio.High)
	case d.opts.PWMFreq > 0:
		if d.last[ch] == v {
			return nil
		}
		d.last[ch] = v
		return p.PWM(gpio.Duty(v*float64(gpio.DutyMax)), d.opts.PWMFreq)
	default:
		// software pulses are re-issued every tick
		d.last[ch] = math.NaN()
		d.cancel(ch)
		if err := p.Out(gpio.High); err != nil {
			return err
		}
		width := time.Duration(float64(d.opts.Pulse) * math.Min(0.99, v))
		d.lower[ch] = d.opts.Sched.After(width, func() {
			d.lower[ch] = nil
			if err := p.Out(gpio.Low); err != nil {
				d.pending = append(d.pending, fmt.Errorf("%s falling edge: %w", p, err))
			}
		})
		return nil
	}
}

func (d *GPIO) level(ch int, v float64, l gpio.Level) error {
	d.cancel(ch)
	if d.last[ch] == v {
		return nil
	}
	d.last[ch] = v
	return d.pins[ch].Out(l)
}

func (d *GPIO) cancel(ch int) {
	if d.lower[ch] != nil {
		d.lower[ch]()
		d.lower[ch] = nil
	}
}

func (d *GPIO) ResetAll() error {
	var errs []error
	for i, p := range d.pins {
		d.cancel(i)
		if err := p.Out(gpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	d.forget()
	errs = append(d.pending, errs...)
	d.pending = nil
	return errors.Join(errs...)
}

func (d *GPIO) forget() {
	for i := range d.last {
		d.last[i] = math.NaN()
	}
}
