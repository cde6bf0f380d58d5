package app

import (
	"time"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/sensor"
)

// Media actions emitted on Core.Actions.
const (
	PlayPause  event.Name = "playpause"
	VolumeUp   event.Name = "volume_up"
	VolumeDown event.Name = "volume_down"
)

// Remote events the demo reacts to.
const (
	RemoteAlert  event.Name = "alert"
	RemoteCandle event.Name = "candle"
	RemotePearly event.Name = "pearly"
	RemoteCalm   event.Name = "calm"
)

const flash = 30 * time.Millisecond

type DemoOptions struct {
	// PowerSave pauses the scroll wheel until the proximity sensor sees a
	// hand.
	PowerSave bool
}

// Demo turns the device into a volume knob with a play/pause button. The
// knob flashes red and green on each notch and stays blue while it
// calibrates. Must run on the scheduler's goroutine.
func (c *Core) Demo(opts DemoOptions) {
	r := c.Runner
	c.programs = append(c.programs,
		r.Steady(1).Color(color.Red).For(flash).Named("plus").When(c.Wheel, sensor.Plus),
		r.Steady(1).Color(color.Green).For(flash).Named("minus").When(c.Wheel, sensor.Minus),
		r.Steady(1).Color(color.Blue).Until(c.Wheel, sensor.Calibrated).Named("calibrating").Now(),
	)

	c.Button.On(sensor.Press, c.action(PlayPause))
	c.Wheel.On(sensor.Plus, c.action(VolumeUp))
	c.Wheel.On(sensor.Minus, c.action(VolumeDown))

	c.programs = append(c.programs,
		// a long press cycles colors until the next press
		r.Pulsing(0.5, 0.3).Rainbow(0.1).Until(c.Button, sensor.Press).Named("rainbow").When(c.Button, sensor.Long),
		r.Blinking(2, 0).Color(color.Yellow).For(3*time.Second).Named("alert").When(c.Remote, RemoteAlert),
		r.Flickering(3, 0.4, c.cfg.Seed).Color(color.RGB{R: 1, G: 0.45, B: 0.1}).
			Until(c.Remote, RemoteCalm).Named("candle").When(c.Remote, RemoteCandle),
		r.Steady(1).Pearly(c.Mag, sensor.AxisZ, 200*time.Millisecond).
			Until(c.Remote, RemoteCalm).Named("pearly").When(c.Remote, RemotePearly),
	)

	if opts.PowerSave {
		c.Wheel.On(sensor.Calibrated, func(event.Event) {
			c.Proximity.Start()
			c.Wheel.Stop()
		})
		c.Proximity.On(sensor.Close, func(event.Event) { c.Wheel.Resume() })
		c.Proximity.On(sensor.Far, func(event.Event) { c.Wheel.Stop() })
	}

	c.Wheel.Start()
	c.log.Info().Bool("power_save", opts.PowerSave).Msg("demo up")
}

func (c *Core) action(name event.Name) func(event.Event) {
	return func(event.Event) {
		c.log.Info().Str("action", string(name)).Msg("media")
		c.Actions.Emit(name, nil)
	}
}
