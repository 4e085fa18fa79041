// Package config loads repcount settings from the environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/engine"
)

// Defaults.
const (
	DefaultPort           = "8090"
	DefaultDBPath         = "repcount.db"
	DefaultLogLevel       = "info"
	DefaultExercise       = "squat"
	DefaultMemoryBudgetMB = 50
	DefaultTargetFPS      = 30
)

// Detector modes. The empty mode picks template matching when a pattern
// is set and the state machine otherwise.
const (
	ModeAuto      = ""
	ModeState     = "state"
	ModeTemplate  = "template"
	ModeThreshold = "threshold"
)

var (
	ErrInvalidMode   = errors.New("invalid detector mode")
	ErrInvalidPort   = errors.New("invalid port")
	ErrInvalidFPS    = errors.New("invalid target fps")
	ErrInvalidBudget = errors.New("invalid memory budget")
)

// Config holds server settings.
type Config struct {
	Port           string `yaml:"port"`
	DBPath         string `yaml:"db"`
	LogLevel       string `yaml:"log_level"`
	Exercise       string `yaml:"exercise"`
	Pattern        string `yaml:"pattern"` // learned pattern file; enables template detection
	MemoryBudgetMB int    `yaml:"memory_budget_mb"`
	TargetFPS      int    `yaml:"target_fps"`

	Mode          string  `yaml:"mode"`
	ThresholdLow  float64 `yaml:"threshold_low"`
	ThresholdHigh float64 `yaml:"threshold_high"`

	// Detector overrides the tier table when set.
	Detector *detector.Config `yaml:"detector,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:           DefaultPort,
		DBPath:         DefaultDBPath,
		LogLevel:       DefaultLogLevel,
		Exercise:       DefaultExercise,
		MemoryBudgetMB: DefaultMemoryBudgetMB,
		TargetFPS:      DefaultTargetFPS,
		ThresholdLow:   detector.DefaultThresholdLow,
		ThresholdHigh:  detector.DefaultThresholdHigh,
	}
}

// Load builds a config from defaults, then the YAML file at path (if
// non-empty), then REPCOUNT_* environment variables, and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.Port = envString("REPCOUNT_PORT", cfg.Port)
	cfg.DBPath = envString("REPCOUNT_DB", cfg.DBPath)
	cfg.LogLevel = envString("REPCOUNT_LOG_LEVEL", cfg.LogLevel)
	cfg.Exercise = envString("REPCOUNT_EXERCISE", cfg.Exercise)
	cfg.Pattern = envString("REPCOUNT_PATTERN", cfg.Pattern)
	cfg.Mode = envString("REPCOUNT_DETECTOR", cfg.Mode)

	var err error
	if cfg.MemoryBudgetMB, err = envInt("REPCOUNT_MEMORY_BUDGET_MB", cfg.MemoryBudgetMB); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidBudget, err)
	}
	if cfg.TargetFPS, err = envInt("REPCOUNT_TARGET_FPS", cfg.TargetFPS); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalidFPS, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", ErrInvalidPort, c.Port)
	}
	if c.TargetFPS < 1 || c.TargetFPS > 240 {
		return fmt.Errorf("%w: %d", ErrInvalidFPS, c.TargetFPS)
	}
	if c.MemoryBudgetMB < 1 {
		return fmt.Errorf("%w: %d MB", ErrInvalidBudget, c.MemoryBudgetMB)
	}
	switch c.Mode {
	case ModeAuto, ModeState:
	case ModeTemplate:
		if c.Pattern == "" {
			return fmt.Errorf("%w: %s needs a pattern", ErrInvalidMode, c.Mode)
		}
	case ModeThreshold:
		if c.ThresholdLow >= c.ThresholdHigh {
			return fmt.Errorf("%w: threshold low %v must be below high %v", ErrInvalidMode, c.ThresholdLow, c.ThresholdHigh)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if c.Detector != nil {
		if err := c.Detector.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DetectorMode resolves ModeAuto against the pattern setting.
func (c Config) DetectorMode() string {
	if c.Mode != ModeAuto {
		return c.Mode
	}
	if c.Pattern != "" {
		return ModeTemplate
	}
	return ModeState
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Engine returns engine settings derived from the target frame rate and
// memory budget. The logger is left for the caller.
func (c Config) Engine() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.TargetFrameTime = time.Second / time.Duration(c.TargetFPS)
	cfg.MemoryBudget = int64(c.MemoryBudgetMB) * 1_000_000
	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
