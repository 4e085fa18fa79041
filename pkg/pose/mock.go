package pose

import "math"

// MockSamples generates a down/up metric sequence: each repetition is
// 1.0 → 0.0 → 1.0 with step seconds between samples.
func MockSamples(repetitions int, step float64) []Sample {
	samples := make([]Sample, 0, repetitions*3)
	t := 0.0
	for i := 0; i < repetitions; i++ {
		samples = append(samples, Sample{Time: t, Metric: 1})
		t += step
		samples = append(samples, Sample{Time: t, Metric: 0})
		t += step
		samples = append(samples, Sample{Time: t, Metric: 1})
		t += step
	}
	return samples
}

// CycleOptions shapes a synthetic exercise stream.
type CycleOptions struct {
	Repetitions  int
	FPS          float64
	LeadIn       float64 // seconds of rest before the first repetition
	MoveDuration float64 // seconds of motion per repetition (out and back)
	RestDuration float64 // seconds of rest after each repetition
	Amplitude    float64 // peak metric excursion
}

// DefaultCycleOptions returns a clean 30 fps stream of slow, well-separated
// repetitions.
func DefaultCycleOptions(repetitions int) CycleOptions {
	return CycleOptions{
		Repetitions:  repetitions,
		FPS:          30,
		LeadIn:       1.0,
		MoveDuration: 2.0,
		RestDuration: 1.5,
		Amplitude:    1.0,
	}
}

// displacement returns the normalized excursion (0..1..0) at time t into a
// repetition, following a raised-cosine profile.
func (o CycleOptions) displacement(t float64) float64 {
	if t < 0 || t > o.MoveDuration {
		return 0
	}
	return (1 - math.Cos(2*math.Pi*t/o.MoveDuration)) / 2
}

func (o CycleOptions) walk(emit func(t, d float64)) {
	step := 1 / o.FPS
	t := 0.0
	phase := func(d float64) {
		end := t + d
		for t < end-step/2 {
			emit(t, 0)
			t += step
		}
	}

	phase(o.LeadIn)
	for i := 0; i < o.Repetitions; i++ {
		start := t
		for t < start+o.MoveDuration-step/2 {
			emit(t, o.displacement(t-start))
			t += step
		}
		phase(o.RestDuration)
	}
}

// SyntheticSamples renders the options as a scalar sample stream.
func SyntheticSamples(o CycleOptions) []Sample {
	var out []Sample
	o.walk(func(t, d float64) {
		out = append(out, Sample{Time: t, Metric: o.Amplitude * d})
	})
	return out
}

// SyntheticFrames renders the options as full frames: both wrists rise and
// fall symmetrically while the rest of the arm stays still.
func SyntheticFrames(o CycleOptions) []Frame {
	var out []Frame
	o.walk(func(t, d float64) {
		lift := 0.8 * o.Amplitude * d
		out = append(out, Frame{
			Time: t,
			Joints: map[JointName]JointPoint{
				LeftShoulder:  {X: 0.4, Y: 0.1, Confidence: 0.9},
				RightShoulder: {X: 0.6, Y: 0.1, Confidence: 0.9},
				LeftElbow:     {X: 0.4, Y: 0.5, Confidence: 0.9},
				RightElbow:    {X: 0.6, Y: 0.5, Confidence: 0.9},
				LeftWrist:     {X: 0.4, Y: 0.9 - lift, Confidence: 0.8},
				RightWrist:    {X: 0.6, Y: 0.9 - lift, Confidence: 0.8},
			},
		})
	})
	return out
}
