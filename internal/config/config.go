// ABOUTME: Configuration loading and parsing for symbios-live
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/symbios-live/internal/transport"
	"github.com/2389/symbios-live/internal/wire"
)

// EnvConfigPath names the environment variable that overrides the config location.
const EnvConfigPath = "SYMBIOS_CONFIG"

// InitialNone disables the command sent on each fresh connection.
const InitialNone = "none"

// Config represents the complete symbios-live configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Stream    StreamConfig    `yaml:"stream" toml:"stream"`
	Reconnect ReconnectConfig `yaml:"reconnect" toml:"reconnect"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
}

// ServerConfig locates the simulation stream
type ServerConfig struct {
	// BaseURL is the simulation's HTTP(S) origin. https selects wss.
	BaseURL string `yaml:"base_url" toml:"base_url"`
	Channel string `yaml:"channel" toml:"channel"`
	// Token is sent as a bearer token when set
	Token string `yaml:"token" toml:"token"`
}

// StreamConfig controls how the stream is consumed
type StreamConfig struct {
	HistoryCapacity int `yaml:"history_capacity" toml:"history_capacity"`
	// InitialCommand is one of pause, play, auto, step, or none
	InitialCommand string `yaml:"initial_command" toml:"initial_command"`
	// InitialSteps applies when InitialCommand is auto
	InitialSteps int `yaml:"initial_steps" toml:"initial_steps"`
}

// ReconnectConfig holds reconnect timing configuration
type ReconnectConfig struct {
	BaseDelay   time.Duration `yaml:"-" toml:"-"`
	MaxDelay    time.Duration `yaml:"-" toml:"-"`
	ManualDelay time.Duration `yaml:"-" toml:"-"`
	MaxAttempts int           `yaml:"max_attempts" toml:"max_attempts"`

	// Raw string values for unmarshaling
	BaseDelayRaw   string `yaml:"base_delay" toml:"base_delay"`
	MaxDelayRaw    string `yaml:"max_delay" toml:"max_delay"`
	ManualDelayRaw string `yaml:"manual_delay" toml:"manual_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Addr    string `yaml:"addr" toml:"addr"`
	Path    string `yaml:"path" toml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
			Channel: "simulation",
		},
		Stream: StreamConfig{
			HistoryCapacity: 60,
			InitialCommand:  string(wire.ActionPause),
			InitialSteps:    999,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts:    5,
			BaseDelayRaw:   "1s",
			MaxDelayRaw:    "10s",
			ManualDelayRaw: "150ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Addr: ":9464",
			Path: "/metrics",
		},
	}
	// Defaults always parse.
	_ = parseDurations(cfg)
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, anything else as YAML. Keys absent
// from the file keep their Default values.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default when it
// does not. Any other read or parse failure is returned.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), false, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// Path returns the config file location.
// Priority: explicit path > SYMBIOS_CONFIG env var > XDG_CONFIG_HOME/symbios/live.yaml > ~/.config/symbios/live.yaml
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "live.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "symbios", "live.yaml")
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that all configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if _, err := c.Endpoint(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if c.Stream.HistoryCapacity <= 0 {
		return fmt.Errorf("stream.history_capacity must be positive")
	}
	if c.Stream.InitialSteps < 0 {
		return fmt.Errorf("stream.initial_steps must not be negative")
	}
	if _, err := c.InitialCommand(); err != nil {
		return err
	}

	if c.Reconnect.BaseDelay <= 0 {
		return fmt.Errorf("reconnect.base_delay must be positive")
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return fmt.Errorf("reconnect.max_delay must be at least reconnect.base_delay")
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must not be negative")
	}
	if c.Reconnect.ManualDelay <= 0 {
		return fmt.Errorf("reconnect.manual_delay must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q must be text or json", c.Logging.Format)
	}

	if c.Metrics.Enabled {
		if c.Metrics.Addr == "" {
			return fmt.Errorf("metrics.addr is required when metrics are enabled")
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with /")
		}
	}

	return nil
}

// Endpoint derives the socket URL from the server section.
func (c *Config) Endpoint() (string, error) {
	return transport.EndpointURL(c.Server.BaseURL, c.Server.Channel)
}

// InitialCommand returns the command to send on each fresh connection, or
// nil when disabled.
func (c *Config) InitialCommand() (*wire.Command, error) {
	raw := strings.TrimSpace(c.Stream.InitialCommand)
	if strings.EqualFold(raw, InitialNone) {
		return nil, nil
	}
	if raw == "" {
		raw = string(wire.ActionPause)
	}

	action, err := wire.ParseAction(raw)
	if err != nil {
		return nil, fmt.Errorf("stream.initial_command: %w", err)
	}

	cmd := &wire.Command{Action: action}
	if action == wire.ActionAuto {
		cmd.Steps = c.Stream.InitialSteps
	}
	return cmd, nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"base_delay", cfg.Reconnect.BaseDelayRaw, &cfg.Reconnect.BaseDelay},
		{"max_delay", cfg.Reconnect.MaxDelayRaw, &cfg.Reconnect.MaxDelay},
		{"manual_delay", cfg.Reconnect.ManualDelayRaw, &cfg.Reconnect.ManualDelay},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
