package detector

import (
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-repcount/pkg/features"
	"github.com/teslashibe/go-repcount/pkg/performance"
	"github.com/teslashibe/go-repcount/pkg/pose"
	"github.com/teslashibe/go-repcount/pkg/sequence"
	"github.com/teslashibe/go-repcount/pkg/signal"
)

// templateStillness is the smoothed intensity below which an active
// repetition is closed even if the sequence matcher has not finished.
const templateStillness float32 = 0.05

// TemplateDetector counts repetitions by matching smoothed motion against
// a learned sequence.Pattern. It runs a three-state machine (monitoring,
// in progress, cooldown) and takes its confidence from the matcher.
type TemplateDetector struct {
	cfg     Config
	quality performance.Quality

	extractor *features.Extractor
	smoothing *signal.SmoothingFilter
	matcher   *sequence.Detector

	state        state
	startTime    float64
	lastFeatures features.Features

	logger *slog.Logger
}

// NewTemplateDetector creates a template detector for p at tier q.
func NewTemplateDetector(p sequence.Pattern, q performance.Quality, logger *slog.Logger) (*TemplateDetector, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &TemplateDetector{
		cfg:          ConfigFor(q),
		quality:      q,
		matcher:      sequence.NewDetector(p),
		state:        monitoring{},
		lastFeatures: features.Neutral(),
		logger:       logger,
	}
	d.rebuild()
	return d, nil
}

func (d *TemplateDetector) rebuild() {
	d.extractor = features.NewExtractor(d.cfg.BufferSize)
	d.smoothing = signal.NewSmoothingFilter(d.cfg.SmoothingWindow, d.cfg.SmoothingFactor)
}

// ProcessSample feeds a scalar sample as a single-joint frame.
func (d *TemplateDetector) ProcessSample(s pose.Sample) Result {
	return d.ProcessFrame(s.Frame())
}

// ProcessFrame advances the detector by one frame.
func (d *TemplateDetector) ProcessFrame(f pose.Frame) Result {
	feats := d.extractor.ProcessFrame(f)
	d.lastFeatures = feats

	smoothed := d.smoothing.Process(feats.MovementIntensity)
	conditioned := feats
	conditioned.MovementIntensity = smoothed

	switch s := d.state.(type) {
	case monitoring:
		if smoothed <= features.RestIntensity {
			return Monitoring{}
		}
		d.startTime = f.Time
		d.matcher.Reset()
		o := d.matcher.Process(conditioned, f.Time)
		d.state = inProgress{phase: o.Phase}
		return RepetitionStarted{Confidence: 1}

	case inProgress:
		o := d.matcher.Process(conditioned, f.Time)
		switch {
		case o.Completed:
			return d.finish(f.Time, o.Confidence())
		case smoothed < templateStillness:
			d.matcher.Reset()
			return d.finish(f.Time, 1)
		}
		d.state = inProgress{phase: o.Phase}
		return RepetitionInProgress{Phase: o.Phase}

	case cooldown:
		if f.Time >= s.until {
			d.state = monitoring{}
		}
		return Monitoring{}

	default:
		panic(fmt.Sprintf("detector: unexpected template state %T", s))
	}
}

func (d *TemplateDetector) finish(t float64, confidence float32) Result {
	start := d.startTime
	d.startTime = 0
	d.state = cooldown{until: t + CooldownDuration}
	if err := ValidateRepetition(start, t); err != nil {
		d.logger.Debug("template repetition rejected", "start", start, "end", t, "reason", err)
		return RepetitionRejected{Reason: err.Error()}
	}
	return RepetitionCompleted{Log: RepetitionLog{StartTime: start, EndTime: t, Confidence: confidence}}
}

// AdaptToPerformanceLevel swaps the extractor and smoothing window for
// tier q. The state machine and matcher segment are kept.
func (d *TemplateDetector) AdaptToPerformanceLevel(q performance.Quality) {
	if q == d.quality {
		return
	}
	d.logger.Info("quality tier changed", "from", d.quality, "to", q, "state", d.state.name())
	d.cfg = ConfigFor(q)
	d.quality = q
	d.rebuild()
}

// ReduceMemoryFootprint drops frame history and cached features.
func (d *TemplateDetector) ReduceMemoryFootprint() {
	d.extractor.Reset()
}

// EstimatedMemoryUsage approximates the bytes retained by the detector.
func (d *TemplateDetector) EstimatedMemoryUsage() int64 {
	return d.extractor.MemoryEstimate()
}

// Reset returns the detector to monitoring with empty history.
func (d *TemplateDetector) Reset() {
	d.state = monitoring{}
	d.startTime = 0
	d.extractor.Reset()
	d.smoothing.Reset()
	d.matcher.Reset()
	d.lastFeatures = features.Neutral()
}

// Pattern returns the pattern being matched.
func (d *TemplateDetector) Pattern() sequence.Pattern { return d.matcher.Pattern() }

// Quality returns the active tier.
func (d *TemplateDetector) Quality() performance.Quality { return d.quality }

// State returns the name of the current state.
func (d *TemplateDetector) State() string { return d.state.name() }

// LastFeatures returns the features of the most recent frame.
func (d *TemplateDetector) LastFeatures() features.Features { return d.lastFeatures }
