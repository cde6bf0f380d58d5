package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/puckglow/internal/config"
	"github.com/coreman2200/puckglow/internal/led"
	"github.com/coreman2200/puckglow/internal/sched"
	"github.com/coreman2200/puckglow/internal/sensor"
)

// OpenDriver opens the output selected by cfg.Driver. Hardware that fails to
// open falls back to the simulator. It returns the driver, a func releasing
// it and the name of the driver actually in use.
func OpenDriver(cfg *config.Config, s sched.Scheduler, log zerolog.Logger) (led.Driver, func() error, string) {
	nop := func() error { return nil }
	dlog := log.With().Str("component", "led").Logger()

	switch cfg.Driver {
	case config.DriverGPIO:
		drv, err := openGPIO(cfg, s)
		if err == nil {
			return drv, drv.ResetAll, cfg.Driver
		}
		log.Warn().Err(err).Strs("pins", cfg.GPIO.Pins).Msg("GPIO init failed; falling back to sim")

	case config.DriverStrip:
		drv, closer, err := openStrip(cfg)
		if err == nil {
			return drv, closer, cfg.Driver
		}
		log.Warn().Err(err).Str("spi", cfg.Strip.SPI).Int("pixels", cfg.Strip.Pixels).Msg("SPI init failed; falling back to sim")

	case config.DriverScreen:
		drv := led.OpenConsole(cfg.Strip.Pixels)
		return drv, drv.ResetAll, cfg.Driver

	case config.DriverSim:
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver; using sim")
	}
	return led.NewSim(dlog), nop, config.DriverSim
}

func openGPIO(cfg *config.Config, s sched.Scheduler) (*led.GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	pins := make([]gpio.PinOut, 0, len(cfg.GPIO.Pins))
	for _, name := range cfg.GPIO.Pins {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("unknown pin %q", name)
		}
		pins = append(pins, p)
	}
	return led.NewGPIO(pins, led.GPIOOptions{
		PWMFreq: physic.Frequency(cfg.GPIO.PWMFreqHz) * physic.Hertz,
		Pulse:   time.Duration(float64(time.Second) / cfg.Freq),
		Sched:   s,
	})
}

func openStrip(cfg *config.Config) (*led.Drawer, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	port, err := spireg.Open(cfg.Strip.SPI)
	if err != nil {
		return nil, nil, err
	}
	drv, err := led.OpenStrip(port, cfg.Strip.Pixels, physic.Frequency(cfg.Strip.FreqKHz)*physic.KiloHertz)
	if err != nil {
		port.Close()
		return nil, nil, err
	}
	return drv, func() error { return errors.Join(drv.ResetAll(), port.Close()) }, nil
}

// WatchButton feeds the button pin from cfg into b until ctx is done. It is
// a no-op unless the GPIO driver is selected and a pin is configured.
func WatchButton(ctx context.Context, cfg *config.Config, p sched.Poster, b *sensor.Button) error {
	if cfg.Driver != config.DriverGPIO || cfg.GPIO.Button == "" {
		return nil
	}
	if _, err := host.Init(); err != nil {
		return err
	}
	pin := gpioreg.ByName(cfg.GPIO.Button)
	if pin == nil {
		return fmt.Errorf("unknown pin %q", cfg.GPIO.Button)
	}
	return sensor.WatchPin(ctx, pin, p, b, cfg.GPIO.Debounce)
}
