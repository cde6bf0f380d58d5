package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/puckglow/internal/app"
	"github.com/coreman2200/puckglow/internal/color"
	"github.com/coreman2200/puckglow/internal/config"
	"github.com/coreman2200/puckglow/internal/event"
	"github.com/coreman2200/puckglow/internal/led"
	"github.com/coreman2200/puckglow/internal/sched"
)

// cue posts one remote event, or a button gesture when name starts with
// "button:", at a point in simulated time.
type cue struct {
	at   time.Duration
	name string
}

func parseCues(s string) ([]cue, error) {
	var cues []cue
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		at, name, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("cue %q: want <duration>:<event>", part)
		}
		d, err := time.ParseDuration(at)
		if err != nil {
			return nil, fmt.Errorf("cue %q: %w", part, err)
		}
		cues = append(cues, cue{at: d, name: name})
	}
	sort.SliceStable(cues, func(i, j int) bool { return cues[i].at < cues[j].at })
	return cues, nil
}

func main() {
	var (
		configPath = flag.String("config", "", "optional config.yaml or config.toml")
		duration   = flag.Duration("duration", 10*time.Second, "simulated time to run")
		every      = flag.Duration("every", 100*time.Millisecond, "print a frame this often")
		cueList    = flag.String("cues", "5s:alert,6s:button:long,7s:button:press,8s:candle,9s:calm",
			"comma separated <duration>:<event> list; events prefixed button: drive the button")
		blend     = flag.String("blend", "", "blend mode override")
		powerSave = flag.Bool("power-save", false, "pause the knob until something is close")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("config")
	}
	cfg.Driver = config.DriverSim
	if *blend != "" {
		cfg.Blend = *blend
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("config")
		}
	}
	cues, err := parseCues(*cueList)
	if err != nil {
		log.Fatal().Err(err).Msg("cues")
	}

	v := sched.NewVirtual()
	sim := led.NewSim(log.Logger)
	core, err := app.InitCore(v, sim, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	core.Demo(app.DemoOptions{PowerSave: *powerSave})

	for _, c := range cues {
		v.After(c.at, func() {
			fmt.Printf("%8s  [cue] %s\n", c.at, c.name)
			if gesture, ok := strings.CutPrefix(c.name, "button:"); ok {
				press(v, core, gesture)
				return
			}
			core.Remote.Emit(event.Name(c.name), nil)
		})
	}
	v.Every(*every, func() {
		st := core.Runner.State()
		vals := sim.Values()
		fmt.Printf("%8s  %s  %v\n", v.Now(), color.RGB{R: vals[0], G: vals[1], B: vals[2]}, st.Stack)
	})

	v.Advance(*duration)
	core.Shutdown()
}

// press feeds a gesture through the button's edge handlers.
func press(v *sched.Virtual, core *app.Core, gesture string) {
	hold := 50 * time.Millisecond
	switch gesture {
	case "long":
		hold = time.Second
	case "press":
	default:
		log.Warn().Str("gesture", gesture).Msg("unknown gesture; pressing")
	}
	core.Button.Down()
	v.After(hold, core.Button.Up)
}
