package performance

import (
	"time"

	"github.com/teslashibe/go-repcount/pkg/ring"
)

const (
	// DefaultTargetFrameTime is the 30 Hz real-time budget.
	DefaultTargetFrameTime = time.Second / 30

	// sampleWindow is how many recent frame times are averaged.
	sampleWindow = 60
)

// Tier boundaries as a ratio of average frame time to target.
const (
	highRatio   = 0.8
	mediumRatio = 1.2
	lowRatio    = 1.5
)

// Controller tracks recent processing durations against a frame-time
// target and classifies load into quality tiers.
type Controller struct {
	target time.Duration
	times  *ring.Buffer[time.Duration]
}

// NewController creates a controller for the given per-frame budget.
// A non-positive target falls back to DefaultTargetFrameTime.
func NewController(target time.Duration) *Controller {
	if target <= 0 {
		target = DefaultTargetFrameTime
	}
	return &Controller{
		target: target,
		times:  ring.New[time.Duration](sampleWindow),
	}
}

// Target returns the per-frame budget.
func (c *Controller) Target() time.Duration {
	return c.target
}

// RecordFrameTime adds one processing duration sample.
func (c *Controller) RecordFrameTime(d time.Duration) {
	c.times.Append(d)
}

// AverageFrameTime returns the mean of the retained samples (0 if none).
func (c *Controller) AverageFrameTime() time.Duration {
	samples := c.times.Chronological()
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples))
}

// OptimalQuality returns the tier matching recent load. With no samples
// it returns QualityHigh.
func (c *Controller) OptimalQuality() Quality {
	if c.times.Len() == 0 {
		return QualityHigh
	}
	ratio := float64(c.AverageFrameTime()) / float64(c.target)
	switch {
	case ratio < highRatio:
		return QualityHigh
	case ratio < mediumRatio:
		return QualityMedium
	case ratio < lowRatio:
		return QualityLow
	default:
		return QualityMinimal
	}
}

// Reset drops all samples.
func (c *Controller) Reset() {
	c.times.Reset()
}
