package signal

import "fmt"

// HysteresisFilter is a two-threshold Schmitt trigger. Once on, it only
// turns off when the input drops below low; once off, it only turns on
// when the input exceeds high.
type HysteresisFilter struct {
	low   float32
	high  float32
	state bool
}

// NewHysteresisFilter creates a filter in the off state.
// It panics unless low < high.
func NewHysteresisFilter(low, high float32) *HysteresisFilter {
	if !(low < high) {
		panic(fmt.Sprintf("signal: hysteresis low (%v) must be below high (%v)", low, high))
	}
	return &HysteresisFilter{low: low, high: high}
}

// Process updates the latch with value and returns the new state.
func (h *HysteresisFilter) Process(value float32) bool {
	if h.state {
		if value < h.low {
			h.state = false
		}
	} else if value > h.high {
		h.state = true
	}
	return h.state
}

// State returns the current latch state.
func (h *HysteresisFilter) State() bool {
	return h.state
}

// Reset returns the filter to the off state.
func (h *HysteresisFilter) Reset() {
	h.state = false
}
