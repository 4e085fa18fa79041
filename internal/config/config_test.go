package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslashibe/go-repcount/pkg/detector"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REPCOUNT_PORT", "REPCOUNT_DB", "REPCOUNT_LOG_LEVEL", "REPCOUNT_EXERCISE",
		"REPCOUNT_PATTERN", "REPCOUNT_MEMORY_BUDGET_MB", "REPCOUNT_TARGET_FPS", "REPCOUNT_DETECTOR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != DefaultPort || cfg.DBPath != DefaultDBPath || cfg.TargetFPS != DefaultTargetFPS {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
	if cfg.Addr() != ":8090" {
		t.Errorf("Expected :8090, got %s", cfg.Addr())
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPCOUNT_PORT", "9000")
	t.Setenv("REPCOUNT_EXERCISE", "squat")
	t.Setenv("REPCOUNT_TARGET_FPS", "60")
	t.Setenv("REPCOUNT_MEMORY_BUDGET_MB", "10")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9000" || cfg.Exercise != "squat" {
		t.Errorf("Expected env overrides, got %+v", cfg)
	}

	eng := cfg.Engine()
	if eng.TargetFrameTime != time.Second/60 {
		t.Errorf("Expected 60 fps budget, got %v", eng.TargetFrameTime)
	}
	if eng.MemoryBudget != 10_000_000 {
		t.Errorf("Expected 10 MB budget, got %d", eng.MemoryBudget)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "repcount.yaml")
	data := []byte(`port: "7000"
exercise: curl
detector:
  buffer_size: 90
  smoothing_window: 2
  smoothing_factor: 0.5
  hysteresis_low: 0.1
  hysteresis_high: 0.2
  confidence_frames: 4
  confidence_threshold: 0.6
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPCOUNT_EXERCISE", "squat")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("Expected port from file, got %s", cfg.Port)
	}
	if cfg.Exercise != "squat" {
		t.Errorf("Expected env to win over file, got %s", cfg.Exercise)
	}
	if cfg.Detector == nil || cfg.Detector.BufferSize != 90 {
		t.Errorf("Expected detector override, got %+v", cfg.Detector)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"non-numeric port", map[string]string{"REPCOUNT_PORT": "http"}, ErrInvalidPort},
		{"port out of range", map[string]string{"REPCOUNT_PORT": "70000"}, ErrInvalidPort},
		{"zero fps", map[string]string{"REPCOUNT_TARGET_FPS": "0"}, ErrInvalidFPS},
		{"non-numeric fps", map[string]string{"REPCOUNT_TARGET_FPS": "fast"}, ErrInvalidFPS},
		{"zero budget", map[string]string{"REPCOUNT_MEMORY_BUDGET_MB": "0"}, ErrInvalidBudget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad_InvalidDetectorOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "repcount.yaml")
	if err := os.WriteFile(path, []byte("detector:\n  buffer_size: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, detector.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoad_DetectorMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		pattern string
		want    string
		wantErr bool
	}{
		{"auto without pattern", "", "", ModeState, false},
		{"auto with pattern", "", "squat.yaml", ModeTemplate, false},
		{"state ignores pattern", "state", "squat.yaml", ModeState, false},
		{"threshold", "threshold", "", ModeThreshold, false},
		{"template without pattern", "template", "", "", true},
		{"unknown", "dtw", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("REPCOUNT_DETECTOR", tt.mode)
			t.Setenv("REPCOUNT_PATTERN", tt.pattern)

			cfg, err := Load("")
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMode) {
					t.Errorf("Expected ErrInvalidMode, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got := cfg.DetectorMode(); got != tt.want {
				t.Errorf("Expected mode %s, got %s", tt.want, got)
			}
		})
	}
}

func TestValidate_ThresholdOrder(t *testing.T) {
	cfg := Default()
	cfg.Mode = ModeThreshold
	cfg.ThresholdLow, cfg.ThresholdHigh = 0.8, 0.2

	if err := cfg.Validate(); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("Expected ErrInvalidMode, got %v", err)
	}
	if cfg.ThresholdLow = 0.1; cfg.Validate() != nil {
		t.Errorf("Expected valid thresholds, got %v", cfg.Validate())
	}
}
