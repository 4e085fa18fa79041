package detector

import (
	"fmt"

	"github.com/teslashibe/go-repcount/pkg/performance"
)

// Config holds the tunable detector parameters. Values are replaced
// wholesale when the quality tier changes, never edited in place.
type Config struct {
	// Feature extraction
	BufferSize int `json:"buffer_size" yaml:"buffer_size"` // frames of pose history

	// Smoothing
	SmoothingWindow int     `json:"smoothing_window" yaml:"smoothing_window"` // values refolded per update
	SmoothingFactor float32 `json:"smoothing_factor" yaml:"smoothing_factor"` // EMA weight of newer values

	// Hysteresis on smoothed intensity
	HysteresisLow  float32 `json:"hysteresis_low" yaml:"hysteresis_low"`   // release below
	HysteresisHigh float32 `json:"hysteresis_high" yaml:"hysteresis_high"` // latch above

	// Confidence confirmation
	ConfidenceFrames    int     `json:"confidence_frames" yaml:"confidence_frames"`
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
}

// DefaultConfig returns the high quality tier.
func DefaultConfig() Config {
	return ConfigFor(performance.QualityHigh)
}

// ConfigFor returns the fixed configuration for a quality tier. Lower tiers
// keep less history, smooth less and demand fewer confirming frames.
func ConfigFor(q performance.Quality) Config {
	switch q {
	case performance.QualityMedium:
		return Config{
			BufferSize:          120,
			SmoothingWindow:     3,
			SmoothingFactor:     0.25,
			HysteresisLow:       0.07,
			HysteresisHigh:      0.12,
			ConfidenceFrames:    3,
			ConfidenceThreshold: 0.6,
		}
	case performance.QualityLow:
		return Config{
			BufferSize:          60,
			SmoothingWindow:     2,
			SmoothingFactor:     0.2,
			HysteresisLow:       0.10,
			HysteresisHigh:      0.15,
			ConfidenceFrames:    2,
			ConfidenceThreshold: 0.5,
		}
	case performance.QualityMinimal:
		return Config{
			BufferSize:          30,
			SmoothingWindow:     1,
			SmoothingFactor:     0.1,
			HysteresisLow:       0.15,
			HysteresisHigh:      0.20,
			ConfidenceFrames:    1,
			ConfidenceThreshold: 0.4,
		}
	default:
		return Config{
			BufferSize:          180,
			SmoothingWindow:     5,
			SmoothingFactor:     0.3,
			HysteresisLow:       0.05,
			HysteresisHigh:      0.10,
			ConfidenceFrames:    3,
			ConfidenceThreshold: 0.7,
		}
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	switch {
	case c.BufferSize < 3:
		return fmt.Errorf("%w: buffer size %d must hold at least 3 frames", ErrInvalidConfig, c.BufferSize)
	case c.SmoothingWindow < 1:
		return fmt.Errorf("%w: smoothing window %d must be positive", ErrInvalidConfig, c.SmoothingWindow)
	case c.SmoothingFactor <= 0 || c.SmoothingFactor > 1:
		return fmt.Errorf("%w: smoothing factor %v must be in (0, 1]", ErrInvalidConfig, c.SmoothingFactor)
	case c.HysteresisLow >= c.HysteresisHigh:
		return fmt.Errorf("%w: hysteresis low %v must be below high %v", ErrInvalidConfig, c.HysteresisLow, c.HysteresisHigh)
	case c.ConfidenceFrames < 1:
		return fmt.Errorf("%w: confidence frames %d must be positive", ErrInvalidConfig, c.ConfidenceFrames)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("%w: confidence threshold %v must be in [0, 1]", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	return nil
}
