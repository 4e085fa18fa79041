// Package sequence matches feature streams against learned exercise
// templates using dynamic time warping (DTW).
package sequence

import (
	"math"

	"github.com/teslashibe/go-repcount/pkg/features"
)

// phaseDeadband is the intensity delta below which DetectMovementPhase
// reports rest.
const phaseDeadband = 0.01

// PhaseSpan is a run of frames sharing a phase.
type PhaseSpan struct {
	Phase      features.Phase `json:"phase"`
	StartFrame int            `json:"start_frame"`
	EndFrame   int            `json:"end_frame"`
	Confidence float32        `json:"confidence"`
}

// AlignSequences returns the DTW similarity of observed against template
// in [0, 1]. The per-cell cost is the absolute movement-intensity
// difference and the total cost is normalized by n+m. Either side empty
// yields 0.
func AlignSequences(observed, template []features.Features) float32 {
	n, m := len(observed), len(template)
	if n == 0 || m == 0 {
		return 0
	}

	inf := float32(math.Inf(1))
	prev := make([]float32, m+1)
	cur := make([]float32, m+1)
	for j := range prev {
		prev[j] = inf
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		cur[0] = inf
		for j := 1; j <= m; j++ {
			diff := observed[i-1].MovementIntensity - template[j-1].MovementIntensity
			if diff < 0 {
				diff = -diff
			}
			cur[j] = diff + min(prev[j], cur[j-1], prev[j-1])
		}
		prev, cur = cur, prev
	}

	return max(0, 1-prev[m]/float32(n+m))
}

// ExtractPhases splits a sequence into spans by the sign of the frame to
// frame intensity change: rising is eccentric, falling or flat is
// concentric. The first span is rest.
func ExtractPhases(seq []features.Features) []PhaseSpan {
	if len(seq) == 0 {
		return nil
	}

	var spans []PhaseSpan
	start := 0
	current := features.PhaseRest
	for i := 1; i < len(seq); i++ {
		next := features.PhaseConcentric
		if seq[i].MovementIntensity-seq[i-1].MovementIntensity > 0 {
			next = features.PhaseEccentric
		}
		if next != current {
			spans = append(spans, PhaseSpan{Phase: current, StartFrame: start, EndFrame: i - 1, Confidence: 1})
			start = i - 1
			current = next
		}
	}
	return append(spans, PhaseSpan{Phase: current, StartFrame: start, EndFrame: len(seq) - 1, Confidence: 1})
}

// DetectMovementPhase classifies current against the last of previous.
// With no history the movement is starting.
func DetectMovementPhase(current features.Features, previous []features.Features) features.Phase {
	if len(previous) == 0 {
		return features.PhaseStarting
	}
	delta := current.MovementIntensity - previous[len(previous)-1].MovementIntensity
	switch {
	case delta > -phaseDeadband && delta < phaseDeadband:
		return features.PhaseRest
	case delta > 0:
		return features.PhaseEccentric
	default:
		return features.PhaseConcentric
	}
}

// VelocityProfile returns the frame to frame intensity deltas of seq.
func VelocityProfile(seq []features.Features) []float32 {
	if len(seq) < 2 {
		return nil
	}
	profile := make([]float32, len(seq)-1)
	for i := 1; i < len(seq); i++ {
		profile[i-1] = seq[i].MovementIntensity - seq[i-1].MovementIntensity
	}
	return profile
}

// intensities wraps raw intensities as features.
func intensities(values []float32) []features.Features {
	out := make([]features.Features, len(values))
	for i, v := range values {
		out[i] = features.Features{MovementIntensity: v, Symmetry: 1}
	}
	return out
}
