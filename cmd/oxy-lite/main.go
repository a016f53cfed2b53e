package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-lite/engine"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a TOML config file")
	headless := flag.Bool("headless", false, "run without a window or GPU")
	frames := flag.Int("frames", 0, "stop a headless run after this many frames")
	profile := flag.Bool("profile", false, "log frame timing statistics every second")
	flag.Parse()

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = engine.LoadConfig(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "oxy-lite: %+v\n", err)
			return 1
		}
	}
	if *frames > 0 {
		cfg.Window.FrameLimit = *frames
	}
	if *headless {
		cfg.Headless()
	}
	if *profile {
		cfg.Game.Profiling = true
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e, err := engine.NewEngine(ctx, cfg, engine.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "oxy-lite: startup failed: %+v\n", err)
		return 1
	}
	if err := e.Run(ctx); err != nil {
		logger.Error("fatal", "error", err)
		fmt.Fprintf(os.Stderr, "oxy-lite: %+v\n", err)
		return 1
	}
	return 0
}
