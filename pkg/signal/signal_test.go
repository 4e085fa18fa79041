package signal

import (
	"math"
	"testing"

	"github.com/teslashibe/go-repcount/pkg/features"
)

func TestHysteresisFilter_Sequence(t *testing.T) {
	h := NewHysteresisFilter(0.2, 0.5)

	inputs := []float32{0.3, 0.6, 0.4, 0.1}
	want := []bool{false, true, true, false}

	for i, v := range inputs {
		if got := h.Process(v); got != want[i] {
			t.Errorf("step %d: Process(%v) = %v, want %v", i, v, got, want[i])
		}
	}
}

func TestHysteresisFilter_ThresholdsAreStrict(t *testing.T) {
	h := NewHysteresisFilter(0.2, 0.5)

	if h.Process(0.5) {
		t.Error("Expected value equal to high not to latch")
	}
	h.Process(0.51)
	if !h.Process(0.2) {
		t.Error("Expected value equal to low not to release")
	}

	h.Reset()
	if h.State() {
		t.Error("Expected Reset to clear state")
	}
}

func TestNewHysteresisFilter_PanicsOnInvertedThresholds(t *testing.T) {
	tests := []struct {
		name      string
		low, high float32
	}{
		{"equal", 0.3, 0.3},
		{"inverted", 0.5, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Expected panic for low=%v high=%v", tt.low, tt.high)
				}
			}()
			NewHysteresisFilter(tt.low, tt.high)
		})
	}
}

func TestSmoothingFilter_FirstValuePassesThrough(t *testing.T) {
	s := NewSmoothingFilter(5, 0.3)
	if got := s.Process(0.8); got != 0.8 {
		t.Errorf("Expected first value unchanged, got %v", got)
	}
}

func TestSmoothingFilter_RefoldsWholeWindow(t *testing.T) {
	s := NewSmoothingFilter(3, 0.5)

	s.Process(1)
	s.Process(0)
	// window [1, 0, 0]: 1 → 0.5 → 0.25
	if got := s.Process(0); math.Abs(float64(got-0.25)) > 1e-6 {
		t.Errorf("Expected 0.25, got %v", got)
	}
	// window [0, 0, 0]: the 1 has left the window entirely
	if got := s.Process(0); got != 0 {
		t.Errorf("Expected 0 once the spike leaves the window, got %v", got)
	}
}

func TestSmoothingFilter_WindowOfOneIsIdentity(t *testing.T) {
	s := NewSmoothingFilter(1, 0.1)
	for _, v := range []float32{0.4, 2, 0} {
		if got := s.Process(v); got != v {
			t.Errorf("Expected %v, got %v", v, got)
		}
	}
}

func TestConfidenceAccumulator_ConfirmsOnThirdSample(t *testing.T) {
	c := NewConfidenceAccumulator(3, 0.7)

	c.Accumulate(features.PhaseEccentric, 0.9)
	if c.IsConfirmed(features.PhaseEccentric) {
		t.Error("Expected not confirmed after 1 sample")
	}
	c.Accumulate(features.PhaseEccentric, 0.9)
	if c.IsConfirmed(features.PhaseEccentric) {
		t.Error("Expected not confirmed after 2 samples")
	}
	c.Accumulate(features.PhaseEccentric, 0.9)
	if !c.IsConfirmed(features.PhaseEccentric) {
		t.Error("Expected confirmed after 3 samples averaging 0.9")
	}
}

func TestConfidenceAccumulator_AverageBelowThreshold(t *testing.T) {
	c := NewConfidenceAccumulator(3, 0.7)
	for _, v := range []float32{0.9, 0.9, 0.2} {
		c.Accumulate(features.PhaseRest, v)
	}
	if c.IsConfirmed(features.PhaseRest) {
		t.Error("Expected average 0.667 not to confirm")
	}

	// window slides to [0.2, 1.0, 1.0]
	c.Accumulate(features.PhaseRest, 1.0)
	c.Accumulate(features.PhaseRest, 1.0)
	if !c.IsConfirmed(features.PhaseRest) {
		avg, _ := c.Average(features.PhaseRest)
		t.Errorf("Expected sliding window to confirm, average %v", avg)
	}
}

func TestConfidenceAccumulator_PhasesIndependent(t *testing.T) {
	c := NewConfidenceAccumulator(2, 0.5)
	c.Accumulate(features.PhaseEccentric, 1)
	c.Accumulate(features.PhaseEccentric, 1)

	if c.IsConfirmed(features.PhaseConcentric) {
		t.Error("Expected concentric to be unconfirmed")
	}

	c.Reset()
	if c.IsConfirmed(features.PhaseEccentric) {
		t.Error("Expected Reset to clear eccentric window")
	}
}
