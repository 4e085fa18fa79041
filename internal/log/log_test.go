package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNew_TextByDefault(t *testing.T) {
	t.Setenv(EnvKey, "")
	var buf bytes.Buffer

	New(&buf, "info").Info("repetition completed", "count", 3)

	if !strings.Contains(buf.String(), "count=3") {
		t.Errorf("Expected text output, got %q", buf.String())
	}
}

func TestNew_JSONInProduction(t *testing.T) {
	t.Setenv(EnvKey, "production")
	var buf bytes.Buffer

	New(&buf, "info").Info("repetition completed", "count", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q", buf.String())
	}
	if entry["count"] != float64(3) {
		t.Errorf("Expected count 3, got %v", entry["count"])
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	t.Setenv(EnvKey, "")
	var buf bytes.Buffer

	l := New(&buf, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got %q", buf.String())
	}
	if !l.Enabled(context.Background(), slog.LevelError) {
		t.Error("Expected error level to be enabled")
	}
}
