package sequence

import (
	"github.com/teslashibe/go-repcount/pkg/features"
)

// maxObserved bounds the frames kept for one segment.
const maxObserved = 600

// Outcome is the result of feeding one frame to a Detector.
type Outcome struct {
	Completed bool
	Phase     features.Phase

	// Set when Completed.
	Duration   float64
	Score      float32 // duration agreement with the pattern
	Similarity float32 // DTW similarity to the template
	Phases     []PhaseSpan
}

// Confidence blends duration agreement and template similarity.
func (o Outcome) Confidence() float32 {
	return (o.Score + o.Similarity) / 2
}

// Detector segments a feature stream into active stretches and scores
// each one against a Pattern when motion returns to rest.
type Detector struct {
	pattern  Pattern
	template []features.Features

	active   bool
	start    float64
	observed []features.Features
}

// NewDetector creates a detector for p.
func NewDetector(p Pattern) *Detector {
	return &Detector{
		pattern:  p,
		template: p.TemplateFeatures(),
	}
}

// Pattern returns the pattern being matched.
func (d *Detector) Pattern() Pattern {
	return d.pattern
}

// Active reports whether a segment is being collected.
func (d *Detector) Active() bool {
	return d.active
}

// Process consumes the features of the frame at time t.
func (d *Detector) Process(f features.Features, t float64) Outcome {
	if f.MovementIntensity >= features.RestIntensity {
		if !d.active {
			d.active = true
			d.start = t
			d.observed = d.observed[:0]
		}
		phase := DetectMovementPhase(f, d.observed)
		if len(d.observed) < maxObserved {
			d.observed = append(d.observed, f)
		}
		return Outcome{Phase: phase}
	}

	if !d.active {
		return Outcome{Phase: features.PhaseRest}
	}

	d.active = false
	duration := t - d.start
	return Outcome{
		Completed:  true,
		Phase:      features.PhaseRest,
		Duration:   duration,
		Score:      DurationScore(duration, d.pattern.ExpectedDuration),
		Similarity: AlignSequences(d.observed, d.template),
		Phases:     ExtractPhases(d.observed),
	}
}

// Reset abandons any segment in progress.
func (d *Detector) Reset() {
	d.active = false
	d.observed = d.observed[:0]
}

// DurationScore is 1 - |observed-expected|/expected, floored at 0.
func DurationScore(observed, expected float64) float32 {
	if expected <= 0 {
		return 0
	}
	diff := observed - expected
	if diff < 0 {
		diff = -diff
	}
	return float32(max(0, 1-diff/expected))
}
