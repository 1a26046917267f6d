// ABOUTME: Entry point for the fake simulation server
// ABOUTME: Serves step_update frames over WebSocket for local development

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389/symbios-live/internal/config"
	"github.com/2389/symbios-live/internal/logging"
	"github.com/2389/symbios-live/internal/simserver"
)

func main() {
	addr := flag.String("addr", ":8000", "Listen address")
	interval := flag.Duration("interval", simserver.DefaultInterval, "Pause between streamed steps")
	maxSteps := flag.Int("max-steps", simserver.DefaultMaxSteps, "Steps per episode")
	disruption := flag.Float64("disruption", simserver.DefaultDisruptionProb, "Per-step disruption probability")
	seed := flag.Uint64("seed", 0, "Random seed (0 for random)")
	token := flag.String("token", os.Getenv("SYMBIOS_TOKEN"), "Require this bearer token")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	logger := logging.Setup(config.LoggingConfig{Level: *logLevel, Format: *logFormat}, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := simserver.New(simserver.Options{
		Interval:       *interval,
		MaxSteps:       *maxSteps,
		DisruptionProb: *disruption,
		Seed:           *seed,
		Token:          *token,
		Logger:         logger,
	})

	logger.Info("starting fake-sim",
		"addr", *addr,
		"interval", interval.Round(time.Millisecond),
		"max_steps", *maxSteps,
		"auth", *token != "",
	)

	if err := srv.ListenAndServe(ctx, *addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
