// Package detector turns a stream of pose frames into repetition events.
//
// Each frame flows through feature extraction, temporal smoothing, a
// hysteresis latch and per-phase confidence accumulation before driving a
// five-state machine:
//
//	Monitoring → PotentialStart → InProgress → PotentialEnd → Cooldown → Monitoring
//
// A Detector is single-threaded; callers serialize access.
package detector

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-repcount/pkg/features"
	"github.com/teslashibe/go-repcount/pkg/performance"
	"github.com/teslashibe/go-repcount/pkg/pose"
	"github.com/teslashibe/go-repcount/pkg/ring"
	"github.com/teslashibe/go-repcount/pkg/signal"
)

const (
	// StartConfidence is reported with every RepetitionStarted.
	StartConfidence float32 = 0.1

	// PromotionFrames is how many consecutive moving frames a candidate
	// start must exceed before it becomes a repetition in progress.
	PromotionFrames = 5

	// CooldownDuration is the dead time after a completed or rejected
	// repetition (seconds).
	CooldownDuration = 0.5

	// processingWindow is how many frame timings Metrics averages.
	processingWindow = 60
)

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithClock overrides the wall clock used for processing-time metrics.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// Metrics is a snapshot of detector health.
type Metrics struct {
	State                 string
	Quality               performance.Quality
	AverageProcessingTime time.Duration
	MemoryUsage           int64
	Frames                uint64
}

// Detector is the repetition state machine together with its signal chain.
type Detector struct {
	cfg     Config
	quality performance.Quality
	tiered  bool

	extractor  *features.Extractor
	smoothing  *signal.SmoothingFilter
	hysteresis *signal.HysteresisFilter
	confidence *signal.ConfidenceAccumulator

	state     state
	startTime float64

	lastFeatures features.Features
	lastSmoothed float32
	frames       uint64
	processing   *ring.Buffer[time.Duration]

	logger *slog.Logger
	now    func() time.Time
}

// New creates a detector with an explicit configuration.
func New(cfg Config, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Detector{
		cfg:          cfg,
		state:        monitoring{},
		lastFeatures: features.Neutral(),
		processing:   ring.New[time.Duration](processingWindow),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.rebuild()
	return d, nil
}

// NewForQuality creates a detector using the tier's fixed configuration.
func NewForQuality(q performance.Quality, opts ...Option) *Detector {
	d := MustNew(ConfigFor(q), opts...)
	d.quality = q
	d.tiered = true
	return d
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config, opts ...Option) *Detector {
	d, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// rebuild replaces the signal chain from d.cfg.
func (d *Detector) rebuild() {
	d.extractor = features.NewExtractor(d.cfg.BufferSize)
	d.smoothing = signal.NewSmoothingFilter(d.cfg.SmoothingWindow, d.cfg.SmoothingFactor)
	d.hysteresis = signal.NewHysteresisFilter(d.cfg.HysteresisLow, d.cfg.HysteresisHigh)
	d.confidence = signal.NewConfidenceAccumulator(d.cfg.ConfidenceFrames, d.cfg.ConfidenceThreshold)
}

// ProcessSample feeds a scalar sample as a single-joint frame.
func (d *Detector) ProcessSample(s pose.Sample) Result {
	return d.ProcessFrame(s.Frame())
}

// ProcessFrame advances the detector by one frame and returns the outcome.
func (d *Detector) ProcessFrame(f pose.Frame) Result {
	started := d.now()
	defer func() {
		d.processing.Append(d.now().Sub(started))
	}()

	feats := d.extractor.ProcessFrame(f)
	smoothed := d.smoothing.Process(feats.MovementIntensity)
	moving := d.hysteresis.Process(smoothed)
	phase := features.ClassifyPhase(feats)
	d.confidence.Accumulate(phase, phaseConfidence(phase, feats.MovementIntensity))

	d.lastFeatures = feats
	d.lastSmoothed = smoothed
	d.frames++

	return d.transition(f.Time, moving, phase)
}

// phaseConfidence scores how strongly a frame supports its phase. Rest
// frames score by stillness, moving frames by intensity.
func phaseConfidence(phase features.Phase, intensity float32) float32 {
	if phase == features.PhaseRest {
		return clamp01(1 - intensity/features.RestIntensity)
	}
	return clamp01(intensity)
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}

func (d *Detector) transition(t float64, moving bool, phase features.Phase) Result {
	switch s := d.state.(type) {
	case monitoring:
		if !moving {
			return Monitoring{}
		}
		d.startTime = t
		d.state = potentialStart{frames: 1}
		return RepetitionStarted{Confidence: StartConfidence}

	case potentialStart:
		if !moving {
			d.state = monitoring{}
			return Monitoring{}
		}
		// promotion is silent; the next frame reports progress
		n := s.frames + 1
		if n > PromotionFrames {
			d.state = inProgress{phase: phase}
		} else {
			d.state = potentialStart{frames: n}
		}
		return Monitoring{}

	case inProgress:
		if !moving && d.confidence.IsConfirmed(phase) {
			conf, _ := d.confidence.Average(phase)
			d.state = potentialEnd{endTime: t, confidence: conf}
			return RepetitionInProgress{Phase: phase}
		}
		d.state = inProgress{phase: phase}
		return RepetitionInProgress{Phase: phase}

	case potentialEnd:
		if moving {
			d.state = inProgress{phase: phase}
			return RepetitionInProgress{Phase: phase}
		}
		start := d.startTime
		d.endCycle()
		d.state = cooldown{until: t + CooldownDuration}
		if err := ValidateRepetition(start, s.endTime); err != nil {
			d.logger.Debug("repetition rejected", "start", start, "end", s.endTime, "reason", err)
			return RepetitionRejected{Reason: err.Error()}
		}
		rep := RepetitionLog{StartTime: start, EndTime: s.endTime, Confidence: s.confidence}
		d.logger.Debug("repetition completed", "start", start, "end", s.endTime, "duration", rep.Duration())
		return RepetitionCompleted{Log: rep}

	case cooldown:
		if t >= s.until {
			d.state = monitoring{}
		}
		return Monitoring{}

	default:
		panic(fmt.Sprintf("detector: unknown state %T", s))
	}
}

// endCycle clears per-repetition state. Smoothing and hysteresis keep
// their history across repetitions.
func (d *Detector) endCycle() {
	d.startTime = 0
	d.confidence.Reset()
}

// AdaptToPerformanceLevel swaps in the tier's configuration. The state
// machine and the current repetition's start time survive the switch;
// signal history does not. Adapting to the current tier is a no-op.
func (d *Detector) AdaptToPerformanceLevel(q performance.Quality) {
	if d.tiered && q == d.quality {
		return
	}
	prev := d.quality
	d.cfg = ConfigFor(q)
	d.quality = q
	d.tiered = true
	d.rebuild()
	d.logger.Info("quality tier changed", "from", prev, "to", q, "state", d.state.name())
}

// ReduceMemoryFootprint drops frame history, cached features and phase
// confidence. The state machine is untouched.
func (d *Detector) ReduceMemoryFootprint() {
	before := d.EstimatedMemoryUsage()
	d.extractor.Reset()
	d.confidence.Reset()
	d.logger.Info("memory footprint reduced", "before", before, "after", d.EstimatedMemoryUsage())
}

// EstimatedMemoryUsage approximates the bytes retained by the detector.
func (d *Detector) EstimatedMemoryUsage() int64 {
	return d.extractor.MemoryEstimate() +
		d.confidence.MemoryEstimate() +
		int64(d.processing.Cap())*8
}

// AverageProcessingTime returns the mean ProcessFrame duration over the
// recent window.
func (d *Detector) AverageProcessingTime() time.Duration {
	values := d.processing.Chronological()
	if len(values) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range values {
		sum += v
	}
	return sum / time.Duration(len(values))
}

// Metrics returns a snapshot of detector health.
func (d *Detector) Metrics() Metrics {
	return Metrics{
		State:                 d.state.name(),
		Quality:               d.quality,
		AverageProcessingTime: d.AverageProcessingTime(),
		MemoryUsage:           d.EstimatedMemoryUsage(),
		Frames:                d.frames,
	}
}

// Reset returns the detector to Monitoring with empty history.
func (d *Detector) Reset() {
	d.state = monitoring{}
	d.endCycle()
	d.smoothing.Reset()
	d.hysteresis.Reset()
	d.extractor.Reset()
	d.lastFeatures = features.Neutral()
	d.lastSmoothed = 0
}

// Config returns the active configuration.
func (d *Detector) Config() Config { return d.cfg }

// Quality returns the active tier. Detectors built with New report
// QualityHigh until their first adaptation.
func (d *Detector) Quality() performance.Quality { return d.quality }

// State returns the name of the current state.
func (d *Detector) State() string { return d.state.name() }

// StartTime returns the start of the tracked repetition, or 0.
func (d *Detector) StartTime() float64 { return d.startTime }

// LastFeatures returns the features of the most recent frame.
func (d *Detector) LastFeatures() features.Features { return d.lastFeatures }

// LastSmoothedIntensity returns the most recent smoothed intensity.
func (d *Detector) LastSmoothedIntensity() float32 { return d.lastSmoothed }

// Extractor exposes the feature extractor for history inspection.
func (d *Detector) Extractor() *features.Extractor { return d.extractor }
