// Package config loads the crosstalk configuration file. A missing file is
// not an error: every field has a documented default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"crosstalk/internal/exchange"
)

type Config struct {
	// TimeoutMS bounds how long an exchange waits for a response.
	TimeoutMS int `yaml:"timeout_ms"`
	// PollIntervalMS is the delay between capture samples while waiting.
	PollIntervalMS int `yaml:"poll_interval_ms"`
	// CaptureLines is the size of the capture window, including scrollback.
	CaptureLines int `yaml:"capture_lines"`
	// PromptMarker prefixes echoed outbound prompts in captures.
	PromptMarker string `yaml:"prompt_marker"`
	// ComposingMarkers are substrings that mark a capture as still being
	// generated. Empty means the built-in set.
	ComposingMarkers []string `yaml:"composing_markers"`
	// StateDir holds the descriptor registry and message history.
	StateDir string `yaml:"state_dir"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	// MonitorListen is the monitor's HTTP listen address.
	MonitorListen string `yaml:"monitor_listen"`
	// MonitorIntervalMS is the monitor's sweep interval.
	MonitorIntervalMS int `yaml:"monitor_interval_ms"`
}

const (
	defaultTimeoutMS         = 30000
	defaultPollIntervalMS    = 1000
	defaultCaptureLines      = 50
	defaultPromptMarker      = ">"
	defaultLogLevel          = "info"
	defaultMonitorListen     = "127.0.0.1:8537"
	defaultMonitorIntervalMS = 2000

	minPollIntervalMS = 100
)

func Default() Config {
	return Config{
		TimeoutMS:         defaultTimeoutMS,
		PollIntervalMS:    defaultPollIntervalMS,
		CaptureLines:      defaultCaptureLines,
		PromptMarker:      defaultPromptMarker,
		StateDir:          defaultStateDir(),
		LogLevel:          defaultLogLevel,
		MonitorListen:     defaultMonitorListen,
		MonitorIntervalMS: defaultMonitorIntervalMS,
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, "crosstalk", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "crosstalk", "config.yaml")
}

// Load reads the config file at path, overlaying it onto the defaults. An
// absent file yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.TimeoutMS <= 0 {
		return errors.New("timeout_ms must be positive")
	}
	if c.PollIntervalMS < minPollIntervalMS {
		return fmt.Errorf("poll_interval_ms must be at least %d", minPollIntervalMS)
	}
	if c.CaptureLines <= 0 {
		return errors.New("capture_lines must be positive")
	}
	if c.MonitorIntervalMS <= 0 {
		return errors.New("monitor_interval_ms must be positive")
	}
	return nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalMS) * time.Millisecond
}

// ExchangeOptions maps the file settings onto coordinator options.
func (c Config) ExchangeOptions() exchange.Options {
	return exchange.Options{
		Timeout:          c.Timeout(),
		PollInterval:     c.PollInterval(),
		CaptureLines:     c.CaptureLines,
		PromptMarker:     c.PromptMarker,
		ComposingMarkers: c.ComposingMarkers,
	}
}

func defaultStateDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); dir != "" {
		return filepath.Join(dir, "crosstalk")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "crosstalk-state"
	}
	return filepath.Join(home, ".local", "state", "crosstalk")
}
