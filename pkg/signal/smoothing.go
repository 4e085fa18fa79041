// Package signal conditions the raw movement signal: exponential smoothing,
// Schmitt-trigger hysteresis and multi-frame per-phase confidence.
package signal

import "github.com/teslashibe/go-repcount/pkg/ring"

// SmoothingFilter is an exponential moving average recomputed over a short
// window of raw values on every update.
//
// Each Process refolds the EMA across all buffered values, seeded by the
// oldest one, instead of keeping a running average. Rebuilding the filter
// with a different window therefore changes the smoothing depth at once.
type SmoothingFilter struct {
	history *ring.Buffer[float32]
	factor  float32 // weight of each newer value (0-1)
}

// NewSmoothingFilter creates a filter over the last windowSize values.
func NewSmoothingFilter(windowSize int, factor float32) *SmoothingFilter {
	return &SmoothingFilter{
		history: ring.New[float32](windowSize),
		factor:  factor,
	}
}

// Process adds value and returns the smoothed result.
func (s *SmoothingFilter) Process(value float32) float32 {
	s.history.Append(value)
	values := s.history.Chronological()

	result := values[0]
	for _, v := range values[1:] {
		result = s.factor*v + (1-s.factor)*result
	}
	return result
}

// Reset clears the window.
func (s *SmoothingFilter) Reset() {
	s.history.Reset()
}

// Len returns the number of values currently in the window.
func (s *SmoothingFilter) Len() int {
	return s.history.Len()
}
