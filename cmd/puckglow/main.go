package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/puckglow/internal/api"
	"github.com/coreman2200/puckglow/internal/app"
	"github.com/coreman2200/puckglow/internal/config"
	"github.com/coreman2200/puckglow/internal/sched"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml or config.toml")
		driver     = flag.String("driver", "", "driver: sim | gpio | nrzled | screen (overrides config)")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		demo       = flag.Bool("demo", true, "wire the volume knob demo")
		powerSave  = flag.Bool("power-save", false, "pause the knob until something is close")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config: file, then PUCKGLOW_* env, then flags ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
		if cfg, err = config.Load(""); err != nil {
			log.Fatal().Err(err).Msg("environment config invalid")
		}
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *simOnly {
		cfg.Driver = config.DriverSim
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	zerolog.SetGlobalLevel(cfg.Level())

	// ---- Core ----
	loop := sched.NewLoop(log.With().Str("component", "loop").Logger())
	drv, closeDrv, selected := app.OpenDriver(cfg, loop, log.Logger)
	core, err := app.InitCore(loop, drv, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("init")
	}
	if *demo {
		loop.Post(func() { core.Demo(app.DemoOptions{PowerSave: *powerSave}) })
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := app.WatchButton(ctx, cfg, loop, core.Button); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("pin", cfg.GPIO.Button).Msg("button unavailable")
		}
	}()

	// ---- HTTP ----
	if cfg.Level() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(api.NewServer(loop, core.Runner, core.Remote, core.Hub, log.Logger)),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", selected).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Run until signalled ----
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	<-done

	// the loop is gone, so the core is ours now
	core.Shutdown()
	if err := closeDrv(); err != nil {
		log.Warn().Err(err).Msg("driver close")
	}
}
