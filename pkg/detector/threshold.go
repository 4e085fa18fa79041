package detector

import (
	"github.com/teslashibe/go-repcount/pkg/features"
	"github.com/teslashibe/go-repcount/pkg/performance"
	"github.com/teslashibe/go-repcount/pkg/pose"
)

// Default ThresholdCounter thresholds for a normalized metric.
const (
	DefaultThresholdLow  = 0.2
	DefaultThresholdHigh = 0.8
)

// ThresholdCounter is the minimal scalar counter: a repetition starts when
// the metric falls to low and completes when it climbs back to high. It
// performs no smoothing or validation.
type ThresholdCounter struct {
	low, high float64
	down      bool
	start     float64
}

// NewThresholdCounter creates a counter with the given thresholds.
func NewThresholdCounter(low, high float64) *ThresholdCounter {
	return &ThresholdCounter{low: low, high: high}
}

// DefaultThresholdCounter uses DefaultThresholdLow and DefaultThresholdHigh.
func DefaultThresholdCounter() *ThresholdCounter {
	return NewThresholdCounter(DefaultThresholdLow, DefaultThresholdHigh)
}

// Process consumes one sample. ok is true when it closes a repetition.
func (c *ThresholdCounter) Process(s pose.Sample) (rep RepetitionLog, ok bool) {
	if !c.down {
		if s.Metric <= c.low {
			c.down = true
			c.start = s.Time
		}
		return RepetitionLog{}, false
	}
	if s.Metric >= c.high {
		c.down = false
		return RepetitionLog{StartTime: c.start, EndTime: s.Time, Confidence: 1}, true
	}
	return RepetitionLog{}, false
}

// Down reports whether the counter is waiting for the metric to rise.
func (c *ThresholdCounter) Down() bool { return c.down }

// Reset forgets a half-finished repetition.
func (c *ThresholdCounter) Reset() {
	c.down = false
	c.start = 0
}

// ThresholdDetector runs a ThresholdCounter behind the same interface as
// Detector. Scalar samples are read from the metric joint; full pose
// frames are reduced with Frame.ToSample, so thresholds are then angles
// in radians.
type ThresholdDetector struct {
	counter      *ThresholdCounter
	extractor    *features.Extractor
	lastFeatures features.Features
}

// NewThresholdDetector creates a threshold detector. Features are still
// extracted so callers can report movement intensity.
func NewThresholdDetector(low, high float64) *ThresholdDetector {
	return &ThresholdDetector{
		counter:      NewThresholdCounter(low, high),
		extractor:    features.NewExtractor(ConfigFor(performance.QualityMinimal).BufferSize),
		lastFeatures: features.Neutral(),
	}
}

// ProcessSample feeds a scalar sample.
func (d *ThresholdDetector) ProcessSample(s pose.Sample) Result {
	return d.ProcessFrame(s.Frame())
}

// ProcessFrame advances the counter by one frame.
func (d *ThresholdDetector) ProcessFrame(f pose.Frame) Result {
	d.lastFeatures = d.extractor.ProcessFrame(f)

	wasDown := d.counter.Down()
	if rep, ok := d.counter.Process(scalar(f)); ok {
		return RepetitionCompleted{Log: rep}
	}
	switch {
	case d.counter.Down() && !wasDown:
		return RepetitionStarted{Confidence: 1}
	case d.counter.Down():
		return RepetitionInProgress{Phase: features.ClassifyPhase(d.lastFeatures)}
	}
	return Monitoring{}
}

func scalar(f pose.Frame) pose.Sample {
	if p, ok := f.Joints[pose.Metric]; ok {
		return pose.Sample{Time: f.Time, Metric: p.X}
	}
	return f.ToSample()
}

// AdaptToPerformanceLevel is a no-op; the counter has no tunable chain.
func (d *ThresholdDetector) AdaptToPerformanceLevel(performance.Quality) {}

// ReduceMemoryFootprint drops frame history.
func (d *ThresholdDetector) ReduceMemoryFootprint() {
	d.extractor.Reset()
}

// EstimatedMemoryUsage approximates the bytes retained by the detector.
func (d *ThresholdDetector) EstimatedMemoryUsage() int64 {
	return d.extractor.MemoryEstimate()
}

// LastFeatures returns the features of the most recent frame.
func (d *ThresholdDetector) LastFeatures() features.Features { return d.lastFeatures }

// State returns "in_progress" between the low and high crossings,
// "monitoring" otherwise.
func (d *ThresholdDetector) State() string {
	if d.counter.Down() {
		return inProgress{}.name()
	}
	return monitoring{}.name()
}

// Reset clears the counter and frame history.
func (d *ThresholdDetector) Reset() {
	d.counter.Reset()
	d.extractor.Reset()
	d.lastFeatures = features.Neutral()
}
