package signal

import (
	"github.com/teslashibe/go-repcount/pkg/features"
	"github.com/teslashibe/go-repcount/pkg/ring"
)

// ConfidenceAccumulator keeps the last requiredFrames confidence samples
// per phase and confirms a phase once that window is full and its average
// reaches the threshold.
type ConfidenceAccumulator struct {
	buffers        map[features.Phase]*ring.Buffer[float32]
	requiredFrames int
	threshold      float32
}

// NewConfidenceAccumulator creates an empty accumulator.
func NewConfidenceAccumulator(requiredFrames int, threshold float32) *ConfidenceAccumulator {
	if requiredFrames <= 0 {
		panic("signal: requiredFrames must be positive")
	}
	return &ConfidenceAccumulator{
		buffers:        make(map[features.Phase]*ring.Buffer[float32]),
		requiredFrames: requiredFrames,
		threshold:      threshold,
	}
}

// Accumulate records one confidence sample for phase.
func (c *ConfidenceAccumulator) Accumulate(phase features.Phase, confidence float32) {
	buf, ok := c.buffers[phase]
	if !ok {
		buf = ring.New[float32](c.requiredFrames)
		c.buffers[phase] = buf
	}
	buf.Append(confidence)
}

// Average returns the mean of the samples held for phase, and how many
// samples that is.
func (c *ConfidenceAccumulator) Average(phase features.Phase) (float32, int) {
	buf, ok := c.buffers[phase]
	if !ok || buf.Len() == 0 {
		return 0, 0
	}
	var sum float32
	values := buf.Chronological()
	for _, v := range values {
		sum += v
	}
	return sum / float32(len(values)), len(values)
}

// IsConfirmed reports whether phase has a full window averaging at least
// the threshold.
func (c *ConfidenceAccumulator) IsConfirmed(phase features.Phase) bool {
	avg, n := c.Average(phase)
	return n >= c.requiredFrames && avg >= c.threshold
}

// Reset forgets every phase window.
func (c *ConfidenceAccumulator) Reset() {
	c.buffers = make(map[features.Phase]*ring.Buffer[float32])
}

// MemoryEstimate approximates the bytes held by the phase windows.
func (c *ConfidenceAccumulator) MemoryEstimate() int64 {
	return int64(len(c.buffers)) * int64(c.requiredFrames) * 4
}
