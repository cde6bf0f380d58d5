// Package app wires the runner, its output drivers and the input sensors
// into one running device.
package app

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/puckglow/internal/config"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/led"
	"github.com/coreman2200/puckglow/internal/lights"
	"github.com/coreman2200/puckglow/internal/sched"
	"github.com/coreman2200/puckglow/internal/sensor"
	"github.com/coreman2200/puckglow/internal/ws"
)

// Core holds everything that runs on the scheduler's goroutine. Apart from
// Hub, none of it may be touched from another goroutine.
type Core struct {
	Runner    *lights.Runner
	Hub       *ws.Hub
	Mag       *sensor.Stream
	Button    *sensor.Button
	Wheel     *sensor.ScrollWheel
	Proximity *sensor.Proximity
	// Remote carries events posted over HTTP.
	Remote *event.Emitter
	// Actions carries the media actions the demo derives from input.
	Actions *event.Emitter

	sched    sched.Scheduler
	cfg      *config.Config
	log      zerolog.Logger
	programs []*lights.Program
}

// InitCore builds the runner on top of drv, teed with a websocket preview,
// and the simulated sensors that feed it.
func InitCore(s sched.Scheduler, drv led.Driver, cfg *config.Config, log zerolog.Logger) (*Core, error) {
	hub := ws.NewHub(log.With().Str("component", "ws").Logger())
	out := led.Tee{drv, ws.NewPreview(hub, cfg.PreviewFPS)}

	runner, err := lights.NewRunner(s, out, cfg.RunnerOptions(log))
	if err != nil {
		return nil, err
	}

	slog := log.With().Str("component", "sensor").Logger()
	mag := sensor.NewStream(s, sensor.NewNoiseMagnetometer(s, cfg.Seed), slog)

	return &Core{
		Runner:    runner,
		Hub:       hub,
		Mag:       mag,
		Button:    sensor.NewButton(s, cfg.Button),
		Wheel:     sensor.NewScrollWheel(s, mag, cfg.ScrollWheel, slog),
		Proximity: sensor.NewProximity(s, sensor.ConstantLight(0.5), cfg.Proximity, slog),
		Remote:    &event.Emitter{},
		Actions:   &event.Emitter{},
		sched:     s,
		cfg:       cfg,
		log:       log.With().Str("component", "app").Logger(),
	}, nil
}

// Shutdown stops the sensors and blanks the output.
func (c *Core) Shutdown() {
	c.Wheel.Stop()
	c.Proximity.Stop()
	for _, p := range c.Runner.Stack() {
		p.Dispose()
	}
	// idle triggered programs still listen on the inputs
	for _, p := range c.programs {
		p.Dispose()
	}
	c.programs = nil
	c.Runner.Stop()
}
