package session

// DefaultRestIntensity is the motion intensity below which the athlete is
// considered resting.
const DefaultRestIntensity = 0.1

// Analytics keeps rest-interval bookkeeping for one session. Rests are
// recorded from two sources: stretches of low motion intensity, and the
// gap between consecutive repetitions.
type Analytics struct {
	IntensityThreshold float64

	restDurations []float64
	lastRepEnd    float64
	hasRep        bool
	restStart     float64
	resting       bool
}

// NewAnalytics creates empty analytics with the default threshold.
func NewAnalytics() *Analytics {
	return &Analytics{IntensityThreshold: DefaultRestIntensity}
}

// UpdateMotionIntensity feeds the intensity observed at offset seconds.
func (a *Analytics) UpdateMotionIntensity(intensity, offset float64) {
	if intensity < a.IntensityThreshold {
		if !a.resting {
			a.restStart = offset
			a.resting = true
		}
		return
	}
	if a.resting {
		if d := offset - a.restStart; d > 0 {
			a.restDurations = append(a.restDurations, d)
		}
		a.resting = false
	}
}

// RegisterRepetition records a completed repetition. The gap since the
// previous repetition counts as rest, and any open low-intensity rest is
// discarded.
func (a *Analytics) RegisterRepetition(start, end float64) {
	if a.hasRep {
		if d := start - a.lastRepEnd; d > 0 {
			a.restDurations = append(a.restDurations, d)
		}
	}
	a.lastRepEnd = end
	a.hasRep = true
	a.resting = false
}

// RestDurations returns a copy of the recorded rests in seconds.
func (a *Analytics) RestDurations() []float64 {
	out := make([]float64, len(a.restDurations))
	copy(out, a.restDurations)
	return out
}

// AverageRest returns the mean recorded rest, or 0.
func (a *Analytics) AverageRest() float64 {
	if len(a.restDurations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range a.restDurations {
		sum += d
	}
	return sum / float64(len(a.restDurations))
}
