package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/povring/internal/config"
	"github.com/coreman2200/povring/internal/diagnostics"
	"github.com/coreman2200/povring/internal/led"
	"github.com/coreman2200/povring/internal/pixbuf"
	"github.com/coreman2200/povring/internal/revolution"
	"github.com/coreman2200/povring/internal/scheduler"
	"github.com/coreman2200/povring/internal/sensor"
)

func main() {
	// ---- Flags (override config.yaml) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: spi | sim")
		simOnly    = flag.Bool("sim-only", false, "force simulation (no hardware output)")
		addr       = flag.String("addr", "", "diagnostics listen address")
		logLevel   = flag.String("log-level", "", "trace | debug | info | warn | error")
		imagePath  = flag.String("image", "", "raw 6000-byte image file")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Config ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults")
		cfg = config.Default()
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *simOnly {
		cfg.Driver = "sim"
	}
	if *addr != "" {
		cfg.Diag.Addr = *addr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *imagePath != "" {
		cfg.Image = *imagePath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("unknown log level; using info")
	} else {
		zerolog.SetGlobalLevel(lvl)
	}

	img, err := loadImage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("no image")
	}

	state := revolution.NewState(cfg.Options(), revolution.NewMonotonicClock())
	stats := &diagnostics.Stats{}

	// ---- Output: real chain, or the console preview ----
	var (
		bus     led.Bus
		latch   led.Latch
		hw      *hardware
		release = func() error { return nil }
	)
	selected := cfg.Driver
	if selected == "spi" {
		hw, err = openHardware(cfg)
		if err != nil {
			log.Warn().Err(err).
				Str("driver", "spi").
				Str("dev", cfg.SPI.Dev).
				Str("speed", cfg.SPI.Speed).
				Msg("SPI init failed; falling back to SIM")
			selected = "sim"
		} else {
			bus, latch = hw.bus, hw.latch
			log.Info().Str("bus", hw.bus.String()).Str("latch", hw.latch.String()).
				Str("sensor", hw.sensor.String()).Msg("ring hardware ready")
		}
	}
	if selected == "sim" {
		d, closeDrawer, err := openDrawer(cfg)
		if err != nil {
			log.Warn().Err(err).
				Str("drawer", cfg.Preview.Drawer).
				Str("dev", cfg.Preview.Dev).
				Msg("strip init failed; previewing to console")
			cfg.Preview.Drawer = "screen"
			d, closeDrawer, _ = openDrawer(cfg)
		}
		release = closeDrawer
		pv := led.NewPreview(d, 50*time.Millisecond)
		bus, latch = pv, pv
		log.Info().Str("drawer", d.String()).Msg("preview ready")
	}

	tx := led.NewTransmitter(bus, latch, cfg.LatchHold(), state, img)
	sched := scheduler.New(state, tx, stats)
	hub := diagnostics.NewHub(state, stats, selected, cfg.StallAfter())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	run := func(name string, f func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Str("task", name).Msg("task stopped")
				cancel()
			}
		}()
	}

	run("scheduler", sched.Run)
	if hw != nil {
		run("sensor", func(ctx context.Context) error { return sensor.Watch(ctx, hw.sensor, state) })
	} else {
		run("sensor", func(ctx context.Context) error { return sensor.Simulate(ctx, cfg.SimPeriod(), state) })
	}
	run("diagnostics", func(ctx context.Context) error { hub.Run(ctx, cfg.DiagInterval()); return nil })

	// ---- HTTP routes ----
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hub.HandleHealth)
	mux.HandleFunc("/stats", hub.HandleStatsWS)
	mux.HandleFunc("/diag", hub.HandleDiagWS)

	srv := &http.Server{
		Addr:         cfg.Diag.Addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Diag.Addr).Str("driver", selected).
			Bool("rotating", cfg.Rotating).Bool("waterfall", cfg.Waterfall).
			Msg("diagnostics server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("diagnostics server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case <-ctx.Done():
	}
	cancel()
	wg.Wait()

	_ = srv.Close()
	if err := tx.Blank(); err != nil {
		log.Warn().Err(err).Msg("blank on shutdown")
	}
	if hw != nil {
		if err := hw.Close(); err != nil {
			log.Warn().Err(err).Msg("release hardware")
		}
	}
	if err := release(); err != nil {
		log.Warn().Err(err).Msg("release preview")
	}
	c := stats.Snapshot()
	log.Info().Uint64("sent", c.FramesSent).Uint64("stale", c.FramesStale).
		Uint64("dropped", c.FramesDropped).Uint64("bus_errors", c.BusErrors).Msg("stopped")
}

func loadImage(cfg *config.Config) (*pixbuf.Buffer, error) {
	if cfg.Image != "" {
		img, err := pixbuf.Load(cfg.Image)
		if err != nil {
			return nil, err
		}
		log.Info().Str("image", cfg.Image).Msg("image loaded")
		return img, nil
	}
	log.Info().Str("pattern", cfg.Pattern).Msg("no image configured; using test pattern")
	return pixbuf.Pattern(pixbuf.Kind(cfg.Pattern))
}
