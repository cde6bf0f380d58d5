package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/lights"
	"github.com/coreman2200/puckglow/internal/sensor"
)

// Output drivers.
const (
	DriverSim    = "sim"
	DriverGPIO   = "gpio"
	DriverStrip  = "nrzled"
	DriverScreen = "screen"
)

type GPIO struct {
	Pins      []string      `yaml:"pins" toml:"pins"` // R, G, B
	PWMFreqHz int           `yaml:"pwm_freq_hz" toml:"pwm_freq_hz"`
	Button    string        `yaml:"button" toml:"button"`
	Debounce  time.Duration `yaml:"debounce" toml:"debounce"`
}

type Strip struct {
	SPI     string `yaml:"spi" toml:"spi"` // "" picks the first port
	Pixels  int    `yaml:"pixels" toml:"pixels"`
	FreqKHz int    `yaml:"freq_khz" toml:"freq_khz"`
}

type Defaults struct {
	Color    []float64     `yaml:"color" toml:"color"`
	Duration time.Duration `yaml:"duration" toml:"duration"`
}

type Config struct {
	LogLevel    string  `yaml:"log_level" toml:"log_level" env:"PUCKGLOW_LOG_LEVEL"`
	Driver      string  `yaml:"driver" toml:"driver" env:"PUCKGLOW_DRIVER"`
	Addr        string  `yaml:"addr" toml:"addr" env:"PUCKGLOW_ADDR"`
	Blend       string  `yaml:"blend" toml:"blend" env:"PUCKGLOW_BLEND"`
	Freq        float64 `yaml:"freq" toml:"freq" env:"PUCKGLOW_FREQ"`
	StackFreq   float64 `yaml:"stack_freq" toml:"stack_freq" env:"PUCKGLOW_STACK_FREQ"`
	AfterPolicy string  `yaml:"after_policy" toml:"after_policy" env:"PUCKGLOW_AFTER_POLICY"`
	Debug       bool    `yaml:"debug" toml:"debug" env:"PUCKGLOW_DEBUG"`
	PreviewFPS  float64 `yaml:"preview_fps" toml:"preview_fps" env:"PUCKGLOW_PREVIEW_FPS"`
	Seed        int64   `yaml:"seed" toml:"seed" env:"PUCKGLOW_SEED"`

	GPIO        GPIO                      `yaml:"gpio" toml:"gpio"`
	Strip       Strip                     `yaml:"strip" toml:"strip"`
	Button      sensor.ButtonOptions      `yaml:"button" toml:"button"`
	ScrollWheel sensor.ScrollWheelOptions `yaml:"scroll_wheel" toml:"scroll_wheel"`
	Proximity   sensor.ProximityOptions   `yaml:"proximity" toml:"proximity"`
	Defaults    Defaults                  `yaml:"defaults" toml:"defaults"`
}

func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Driver:      DriverSim,
		Addr:        ":8080",
		Blend:       string(color.Normal),
		Freq:        lights.DefaultFreq,
		StackFreq:   lights.DefaultStackFreq,
		AfterPolicy: string(lights.AfterAlways),
		PreviewFPS:  20,
		Seed:        1,
		GPIO: GPIO{
			Pins:     []string{"GPIO17", "GPIO27", "GPIO22"},
			Button:   "GPIO4",
			Debounce: 50 * time.Millisecond,
		},
		Strip: Strip{Pixels: 12, FreqKHz: 2500},
		Defaults: Defaults{
			Color:    []float64{1, 0, 0},
			Duration: lights.DefaultBlipDuration,
		},
	}
}

// Load reads path over the defaults, then applies PUCKGLOW_* environment
// overrides. An empty path only applies the environment. Files ending in
// .toml are read as TOML, anything else as YAML.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(b, c)
		} else {
			err = yaml.Unmarshal(b, c)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	var errs []error
	if _, err := color.ParseBlendMode(c.Blend); err != nil {
		errs = append(errs, err)
	}
	if _, err := lights.ParseAfterPolicy(c.AfterPolicy); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.Driver {
	case DriverSim, DriverGPIO, DriverStrip, DriverScreen:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}
	if c.Freq <= 0 || c.StackFreq <= 0 {
		errs = append(errs, errors.New("freq and stack_freq must be positive"))
	}
	if c.Driver == DriverGPIO && len(c.GPIO.Pins) != 3 {
		errs = append(errs, fmt.Errorf("gpio needs 3 pins, got %d", len(c.GPIO.Pins)))
	}
	if _, err := color.FromSlice(c.Defaults.Color); err != nil {
		errs = append(errs, fmt.Errorf("defaults.color: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) Level() zerolog.Level {
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}

// RunnerOptions maps the config onto lights.Options. The config must be
// valid.
func (c *Config) RunnerOptions(log zerolog.Logger) lights.Options {
	blip, _ := color.FromSlice(c.Defaults.Color)
	return lights.Options{
		Blend:        color.BlendMode(c.Blend),
		Freq:         c.Freq,
		StackFreq:    c.StackFreq,
		AfterPolicy:  lights.AfterPolicy(c.AfterPolicy),
		Debug:        c.Debug,
		BlipColor:    blip,
		BlipDuration: c.Defaults.Duration,
		Log:          log,
	}
}
