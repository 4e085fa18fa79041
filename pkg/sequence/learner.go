package sequence

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/teslashibe/go-repcount/pkg/features"
	"github.com/teslashibe/go-repcount/pkg/pose"
)

type example struct {
	duration float64
	profile  []float32
}

// TemporalPatternLearner builds a Pattern from recorded example
// repetitions. The template is the element-wise mean of the examples'
// intensity profiles after resampling them to their mean length.
type TemporalPatternLearner struct {
	exercise string
	examples []example
	logger   *slog.Logger
}

// NewTemporalPatternLearner creates a learner for the named exercise.
func NewTemporalPatternLearner(exercise string, logger *slog.Logger) *TemporalPatternLearner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemporalPatternLearner{exercise: exercise, logger: logger}
}

// StartLearningSession discards recorded examples.
func (l *TemporalPatternLearner) StartLearningSession() {
	l.examples = nil
}

// Examples returns the number of recorded examples.
func (l *TemporalPatternLearner) Examples() int {
	return len(l.examples)
}

// RecordExampleSequence records one repetition given as pose frames.
func (l *TemporalPatternLearner) RecordExampleSequence(frames []pose.Frame) error {
	if len(frames) < 2 {
		return fmt.Errorf("%w: %d frames", ErrShortExample, len(frames))
	}
	duration := frames[len(frames)-1].Time - frames[0].Time
	if duration <= 0 {
		return fmt.Errorf("%w: %.3fs", ErrShortExample, duration)
	}

	ex := features.NewExtractor(len(frames))
	profile := make([]float32, len(frames))
	for i, f := range frames {
		profile[i] = ex.ProcessFrame(f).MovementIntensity
	}

	l.examples = append(l.examples, example{duration: duration, profile: profile})
	l.logger.Debug("example recorded", "exercise", l.exercise, "duration", duration, "frames", len(frames))
	return nil
}

// RecordExampleSamples records one repetition given as scalar samples.
func (l *TemporalPatternLearner) RecordExampleSamples(samples []pose.Sample) error {
	frames := make([]pose.Frame, len(samples))
	for i, s := range samples {
		frames[i] = s.Frame()
	}
	return l.RecordExampleSequence(frames)
}

// GenerateTemporalPattern averages the recorded examples.
func (l *TemporalPatternLearner) GenerateTemporalPattern() (Pattern, error) {
	if len(l.examples) == 0 {
		return Pattern{}, ErrNoExamples
	}

	var totalDuration float64
	var totalLen int
	for _, e := range l.examples {
		totalDuration += e.duration
		totalLen += len(e.profile)
	}
	n := len(l.examples)
	length := max(1, int(math.Round(float64(totalLen)/float64(n))))

	template := make([]float32, length)
	for _, e := range l.examples {
		for i, v := range resample(e.profile, length) {
			template[i] += v
		}
	}
	for i := range template {
		template[i] /= float32(n)
	}

	p := Pattern{
		Exercise:         l.exercise,
		ExpectedDuration: totalDuration / float64(n),
		VelocityTemplate: template,
		Examples:         n,
	}
	l.logger.Info("pattern generated", "exercise", l.exercise, "examples", n, "expected_duration", p.ExpectedDuration)
	return p, nil
}

// resample linearly interpolates values onto length evenly spaced points.
func resample(values []float32, length int) []float32 {
	out := make([]float32, length)
	if len(values) == 0 {
		return out
	}
	if len(values) == 1 || length == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}

	scale := float64(len(values)-1) / float64(length-1)
	for i := range out {
		pos := float64(i) * scale
		lo := int(pos)
		if lo >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := float32(pos - float64(lo))
		out[i] = values[lo]*(1-frac) + values[lo+1]*frac
	}
	return out
}
