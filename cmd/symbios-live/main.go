// ABOUTME: Entry point for the symbios-live terminal client
// ABOUTME: Streams simulation telemetry to the terminal and forwards run commands

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/symbios-live/internal/config"
	"github.com/2389/symbios-live/internal/logging"
	"github.com/2389/symbios-live/internal/metrics"
	"github.com/2389/symbios-live/internal/session"
	"github.com/2389/symbios-live/internal/transport"
)

// Version is set at build time with -ldflags.
var version = "dev"

const banner = `
                 _     _                 _ _
  ___ _   _ _ __ | |__ (_) ___  ___      | (_)_   _____
 / __| | | | '_ \| '_ \| |/ _ \/ __|_____| | \ \ / / _ \
 \__ \ |_| | | | | |_) | | (_) \__ \_____| | |\ V /  __/
 |___/\__, |_| |_|_.__/|_|\___/|___/     |_|_| \_/ \___|
      |___/
`

type flags struct {
	config   string
	baseURL  string
	channel  string
	logLevel string
}

func main() {
	var f flags
	flag.StringVar(&f.config, "config", "", "Config file (default $SYMBIOS_CONFIG or ~/.config/symbios/live.yaml)")
	flag.StringVar(&f.baseURL, "url", "", "Simulation base URL, overrides server.base_url")
	flag.StringVar(&f.channel, "channel", "", "Stream channel, overrides server.channel")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level, overrides logging.level")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, f, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(f flags) (*config.Config, string, error) {
	path := config.Path(f.config)

	var cfg *config.Config
	if f.config != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		loaded, found, err := config.LoadOrDefault(path)
		if err != nil {
			return nil, "", fmt.Errorf("loading config: %w", err)
		}
		if !found {
			path = "(defaults)"
		}
		cfg = loaded
	}

	if f.baseURL != "" {
		cfg.Server.BaseURL = f.baseURL
	}
	if f.channel != "" {
		cfg.Server.Channel = f.channel
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("validating config: %w", err)
	}
	return cfg, path, nil
}

func run(ctx context.Context, f flags, in io.Reader, out io.Writer) error {
	cfg, configPath, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger := logging.Setup(cfg.Logging, os.Stderr)

	endpoint, err := cfg.Endpoint()
	if err != nil {
		return err
	}
	initial, err := cfg.InitialCommand()
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New()
		stop := serveMetrics(cfg.Metrics, collector, logger)
		defer stop()
	}

	client, err := session.NewClient(session.Options{
		Dialer: transport.NewWebSocketDialer(endpoint, cfg.Server.Token),
		Backoff: session.Backoff{
			Base:        cfg.Reconnect.BaseDelay,
			Max:         cfg.Reconnect.MaxDelay,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		ManualDelay:     cfg.Reconnect.ManualDelay,
		InitialCommand:  initial,
		HistoryCapacity: cfg.Stream.HistoryCapacity,
		Metrics:         collector,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	defer client.Close()

	printBanner(out, configPath, endpoint, cfg)

	updates, _ := client.Subscribe(ctx)
	client.Start()

	lines := readLines(in)
	r := newRenderer(out)

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			r.Render(u)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			if quit := handleInput(out, client, line); quit {
				return nil
			}
		}
	}
}

// handleInput runs one typed command and reports whether to exit.
func handleInput(out io.Writer, client *session.Client, line string) bool {
	cmd, err := parseInput(line)
	if err != nil {
		fmt.Fprintln(out, color.YellowString("    %v", err))
		return false
	}

	var sent bool
	switch cmd.kind {
	case inputPlay:
		sent = client.Play()
	case inputPause:
		sent = client.Pause()
	case inputToggle:
		sent = client.TogglePlay()
	case inputStep:
		sent = client.Step()
	case inputAuto:
		sent = client.Auto(cmd.steps)
	case inputReconnect:
		client.Reconnect()
		fmt.Fprintln(out, color.HiBlackString("    reconnecting..."))
		return false
	case inputStatus:
		fmt.Fprintln(out, "    "+statusLine(client.Current()))
		return false
	case inputHelp:
		fmt.Fprintln(out, helpText)
		return false
	case inputQuit:
		return true
	}

	if !sent {
		fmt.Fprintln(out, color.YellowString("    not connected; command dropped"))
	}
	return false
}

// readLines forwards stdin lines until EOF.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func serveMetrics(cfg config.MetricsConfig, collector *metrics.Collector, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", cfg.Addr, "path", cfg.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printBanner(out io.Writer, configPath, endpoint string, cfg *config.Config) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Fprint(out, banner)
	gray.Fprintf(out, "    version: %s\n\n", version)

	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:    %s\n", configPath)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Stream:    %s\n", endpoint)
	if cfg.Metrics.Enabled {
		green.Fprint(out, "    ▶ ")
		fmt.Fprintf(out, "Metrics:   %s%s\n", cfg.Metrics.Addr, cfg.Metrics.Path)
	}
	fmt.Fprintln(out)
	gray.Fprintln(out, "    Type /help for commands.")
	fmt.Fprintln(out)
}
