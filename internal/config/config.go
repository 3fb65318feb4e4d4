// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/volblock/internal/volume"
)

// Default configuration values.
const (
	DefaultWatchInterval = 2 * time.Second
	DefaultFormat        = "waybar"
	DefaultNotifyTimeout = 1500 * time.Millisecond
	DefaultLogLevel      = "warn"
)

// Formats lists the accepted output formats.
var Formats = []string{"waybar", "i3bar", "plain", "json", "yaml", "pretty"}

// LogLevels lists the accepted log levels.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "500ms", "2s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '500ms', '2s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the volblock configuration.
type Config struct {
	Mixer   MixerConfig   `toml:"mixer"`
	Backoff BackoffConfig `toml:"backoff"`
	Watch   WatchConfig   `toml:"watch"`
	Output  OutputConfig  `toml:"output"`
	Notify  NotifyConfig  `toml:"notify"`
	Log     LogConfig     `toml:"log"`
}

// MixerConfig selects the mixer command and control.
type MixerConfig struct {
	Command string `toml:"command"` // Mixer executable
	Control string `toml:"control"` // Simple mixer control name
	Card    string `toml:"card"`    // ALSA card (empty = default)
}

// BackoffConfig holds the retry policy for an unavailable mixer.
type BackoffConfig struct {
	Initial Duration `toml:"initial"`
	Max     Duration `toml:"max"`
}

// WatchConfig holds settings for `volblock watch`.
type WatchConfig struct {
	Interval    Duration `toml:"interval"`     // Time between polls
	ChangesOnly bool     `toml:"changes_only"` // Only print when the output changes
}

// OutputConfig holds output format settings.
type OutputConfig struct {
	Format   string `toml:"format"`   // waybar, i3bar, plain, json, yaml, pretty
	Template string `toml:"template"` // text/template for the plain format
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Enabled bool     `toml:"enabled"`
	Timeout Duration `toml:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// SlogLevel converts the configured level to a slog.Level.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Mixer: MixerConfig{
			Command: volume.DefaultCommand,
			Control: volume.DefaultControl,
			Card:    "",
		},
		Backoff: BackoffConfig{
			Initial: Duration(volume.DefaultInitialBackoff),
			Max:     Duration(volume.DefaultMaxBackoff),
		},
		Watch: WatchConfig{
			Interval:    Duration(DefaultWatchInterval),
			ChangesOnly: true,
		},
		Output: OutputConfig{
			Format:   DefaultFormat,
			Template: "",
		},
		Notify: NotifyConfig{
			Enabled: false,
			Timeout: Duration(DefaultNotifyTimeout),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "volblock", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q (want one of %s)",
			c.Output.Format, strings.Join(Formats, ", ")))
	}
	if !slices.Contains(LogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q (want one of %s)",
			c.Log.Level, strings.Join(LogLevels, ", ")))
	}
	if c.Backoff.Initial <= 0 {
		errs = append(errs, errors.New("backoff.initial: must be positive"))
	}
	if c.Backoff.Max <= 0 {
		errs = append(errs, errors.New("backoff.max: must be positive"))
	}
	if c.Backoff.Initial > c.Backoff.Max {
		errs = append(errs, errors.New("backoff.initial: must not exceed backoff.max"))
	}
	if c.Watch.Interval <= 0 {
		errs = append(errs, errors.New("watch.interval: must be positive"))
	}
	if c.Notify.Timeout < 0 {
		errs = append(errs, errors.New("notify.timeout: must not be negative"))
	}

	return errors.Join(errs...)
}

// PollerOptions returns the mixer poller options for this config.
func (c *Config) PollerOptions() volume.PollerOptions {
	return volume.PollerOptions{
		Command:        c.Mixer.Command,
		Control:        c.Mixer.Control,
		Card:           c.Mixer.Card,
		InitialBackoff: c.Backoff.Initial.Duration(),
		MaxBackoff:     c.Backoff.Max.Duration(),
	}
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
