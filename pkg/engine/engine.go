// Package engine coordinates a repetition detector with performance
// adaptation, memory control and session logging for a single stream of
// pose frames.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/features"
	"github.com/teslashibe/go-repcount/pkg/performance"
	"github.com/teslashibe/go-repcount/pkg/pose"
	"github.com/teslashibe/go-repcount/pkg/session"
)

// RepetitionDetector is the per-frame detector the engine drives.
// *detector.Detector, *detector.TemplateDetector and
// *detector.ThresholdDetector satisfy it.
type RepetitionDetector interface {
	ProcessFrame(f pose.Frame) detector.Result
	AdaptToPerformanceLevel(q performance.Quality)
	ReduceMemoryFootprint()
	EstimatedMemoryUsage() int64
	LastFeatures() features.Features
	State() string
	Reset()
}

// SkipReason says why a frame was not processed.
type SkipReason string

// SkipOutOfOrder marks a frame older than the last processed one.
const SkipOutOfOrder SkipReason = "out_of_order"

// KindSkipped is reported by Update.Kind for skipped frames.
const KindSkipped = "frame_skipped"

// Config holds engine settings.
type Config struct {
	TargetFrameTime time.Duration
	MemoryBudget    int64
	Logger          *slog.Logger
}

// DefaultConfig returns a 30 fps target and a 50 MB memory budget.
func DefaultConfig() Config {
	return Config{
		TargetFrameTime: performance.DefaultTargetFrameTime,
		MemoryBudget:    performance.DefaultMemoryBudget,
		Logger:          slog.Default(),
	}
}

// Update is the engine's outcome for one frame.
type Update struct {
	Time       float64
	Result     detector.Result // nil when Skipped
	Skipped    bool
	SkipReason SkipReason
	Repetition *session.Repetition // set when a completion was logged
	Count      int
	Quality    performance.Quality
	Intensity  float32
}

// Kind returns the result kind, or KindSkipped.
func (u Update) Kind() string {
	if u.Skipped {
		return KindSkipped
	}
	return u.Result.Kind()
}

// Status is a snapshot of engine health.
type Status struct {
	State            string        `json:"state"`
	Quality          string        `json:"quality"`
	Count            int           `json:"count"`
	Frames           uint64        `json:"frames"`
	Skipped          uint64        `json:"skipped"`
	AverageFrameTime time.Duration `json:"average_frame_time"`
	MemoryUsage      int64         `json:"memory_usage"`
	MemoryBudget     int64         `json:"memory_budget"`
	Reductions       int           `json:"memory_reductions"`
}

// Engine runs frames through a detector. It is not safe for concurrent
// use; callers serialize ProcessFrame.
type Engine struct {
	cfg        Config
	detector   RepetitionDetector
	controller *performance.Controller
	memory     *performance.MemoryManager
	sessions   *session.Manager

	quality  performance.Quality
	lastTime float64
	seen     bool
	count    int
	frames   uint64
	skipped  uint64

	subscribers []func(Update)

	logger *slog.Logger
	now    func() time.Time
}

// New creates an engine. det defaults to a high quality
// detector.Detector; sessions may be nil. det keeps its own settings
// until load first moves the engine off QualityHigh.
func New(cfg Config, det RepetitionDetector, sessions *session.Manager) *Engine {
	if cfg.TargetFrameTime <= 0 {
		cfg.TargetFrameTime = performance.DefaultTargetFrameTime
	}
	if cfg.MemoryBudget <= 0 {
		cfg.MemoryBudget = performance.DefaultMemoryBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if det == nil {
		det = detector.NewForQuality(performance.QualityHigh, detector.WithLogger(cfg.Logger))
	}

	return &Engine{
		cfg:        cfg,
		detector:   det,
		controller: performance.NewController(cfg.TargetFrameTime),
		memory:     performance.NewMemoryManager(cfg.MemoryBudget),
		sessions:   sessions,
		quality:    performance.QualityHigh,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// Subscribe registers fn to receive every processed Update.
func (e *Engine) Subscribe(fn func(Update)) {
	e.subscribers = append(e.subscribers, fn)
}

// ProcessSample feeds a scalar sample.
func (e *Engine) ProcessSample(ctx context.Context, s pose.Sample) Update {
	return e.ProcessFrame(ctx, s.Frame())
}

// ProcessFrame runs one frame through the detector, adapting quality and
// memory use and logging completed repetitions to the running session.
func (e *Engine) ProcessFrame(ctx context.Context, f pose.Frame) Update {
	if e.seen && f.Time < e.lastTime {
		e.skipped++
		e.logger.Debug("frame skipped", "reason", SkipOutOfOrder, "time", f.Time, "last", e.lastTime)
		return Update{Time: f.Time, Skipped: true, SkipReason: SkipOutOfOrder, Count: e.count, Quality: e.quality}
	}
	e.seen = true
	e.lastTime = f.Time

	start := e.now()
	if q := e.controller.OptimalQuality(); q != e.quality {
		e.logger.Info("adapting quality", "from", e.quality, "to", q, "avg_frame_time", e.controller.AverageFrameTime())
		e.quality = q
		e.detector.AdaptToPerformanceLevel(q)
	}

	result := e.detector.ProcessFrame(f)
	e.controller.RecordFrameTime(e.now().Sub(start))
	e.frames++

	if usage := e.detector.EstimatedMemoryUsage(); e.memory.ShouldReduce(usage) {
		e.logger.Warn("memory budget exceeded", "usage", usage, "budget", e.memory.Budget())
		e.detector.ReduceMemoryFootprint()
		e.memory.RecordReduction()
	}

	intensity := e.detector.LastFeatures().MovementIntensity
	if e.sessions != nil {
		e.sessions.UpdateIntensity(float64(intensity), f.Time)
	}

	u := Update{Time: f.Time, Result: result, Quality: e.quality, Intensity: intensity}
	if c, ok := result.(detector.RepetitionCompleted); ok {
		e.count++
		u.Repetition = e.logRepetition(ctx, c.Log)
	}
	u.Count = e.count

	for _, fn := range e.subscribers {
		fn(u)
	}
	return u
}

func (e *Engine) logRepetition(ctx context.Context, rep detector.RepetitionLog) *session.Repetition {
	if e.sessions == nil {
		return nil
	}
	r, err := e.sessions.LogRepetition(ctx, rep)
	switch {
	case err == nil:
		return &r
	case errors.Is(err, session.ErrNoActiveSession):
		e.logger.Debug("repetition outside session", "start", rep.StartTime, "end", rep.EndTime)
	default:
		e.logger.Error("failed to log repetition", "error", err)
	}
	return nil
}

// RecordFrameTime feeds an externally measured frame time (for example
// the capture pipeline's) to the performance controller.
func (e *Engine) RecordFrameTime(d time.Duration) {
	e.controller.RecordFrameTime(d)
}

// OptimalQuality returns the tier the controller currently recommends.
func (e *Engine) OptimalQuality() performance.Quality {
	return e.controller.OptimalQuality()
}

// Reset clears the count, detector and timing history. Used when a new
// session starts.
func (e *Engine) Reset() {
	e.detector.Reset()
	e.controller.Reset()
	e.count = 0
	e.seen = false
	e.lastTime = 0
	if e.quality != performance.QualityHigh {
		e.quality = performance.QualityHigh
		e.detector.AdaptToPerformanceLevel(performance.QualityHigh)
	}
}

// Count returns the repetitions completed since the last Reset.
func (e *Engine) Count() int { return e.count }

// Sessions returns the session manager, or nil.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Status returns a health snapshot.
func (e *Engine) Status() Status {
	return Status{
		State:            e.detector.State(),
		Quality:          e.quality.String(),
		Count:            e.count,
		Frames:           e.frames,
		Skipped:          e.skipped,
		AverageFrameTime: e.controller.AverageFrameTime(),
		MemoryUsage:      e.detector.EstimatedMemoryUsage(),
		MemoryBudget:     e.memory.Budget(),
		Reductions:       e.memory.Reductions(),
	}
}
