package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/devinit/internal/handles"
)

// Mode selects what Run does.
type Mode string

const (
	// ModeOrder prints the initialization order.
	ModeOrder Mode = "order"
	// ModeTable prints the encoded handle table.
	ModeTable Mode = "table"
	// ModeRun performs a simulated bring-up.
	ModeRun Mode = "run"
	// ModeWatch re-validates the description whenever it changes.
	ModeWatch Mode = "watch"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Mode  Mode
	Paths []string // hcl files or directories

	LogFormat string
	LogLevel  string

	// Output is the order rendering: text, json or yaml.
	Output         string
	Layout         handles.Layout
	ImplicitParent bool

	HealthcheckPort int
	Workers         int
	Retries         int
	RetryDelay      time.Duration
	InitDelay       time.Duration
	DefaultTimeout  time.Duration

	EventsURL       string
	EventsNamespace string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one description path is required")
	}

	switch cfg.Mode {
	case ModeOrder, ModeTable, ModeRun, ModeWatch:
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	switch cfg.Output {
	case "":
		cfg.Output = "text"
	case "text", "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid output %q: must be 'text', 'json' or 'yaml'", cfg.Output)
	}

	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must not be negative, got %d", cfg.Retries)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d out of range", cfg.HealthcheckPort)
	}
	if cfg.RetryDelay < 0 || cfg.InitDelay < 0 || cfg.DefaultTimeout < 0 {
		return nil, errors.New("durations must not be negative")
	}

	return &cfg, nil
}
