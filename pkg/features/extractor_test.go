package features

import (
	"math"
	"testing"

	"github.com/teslashibe/go-repcount/pkg/pose"
)

func approx(a, b, tol float32) bool {
	return float32(math.Abs(float64(a-b))) <= tol
}

func TestExtract_TooFewFrames(t *testing.T) {
	for _, frames := range [][]pose.Frame{nil, {{Time: 0}}} {
		f := Extract(frames)
		if f.MovementIntensity != 0 {
			t.Errorf("Expected zero intensity, got %v", f.MovementIntensity)
		}
		if f.Symmetry != 1 {
			t.Errorf("Expected symmetry 1, got %v", f.Symmetry)
		}
	}
}

func TestExtract_NonPositiveDeltaSkipped(t *testing.T) {
	frames := []pose.Frame{
		{Time: 1, Joints: map[pose.JointName]pose.JointPoint{pose.Nose: {X: 0}}},
		{Time: 1, Joints: map[pose.JointName]pose.JointPoint{pose.Nose: {X: 1}}},
	}
	f := Extract(frames)
	if f.MovementIntensity != 0 || f.Symmetry != 1 {
		t.Errorf("Expected neutral features, got %+v", f)
	}
}

func TestExtract_SingleJointVelocity(t *testing.T) {
	frames := []pose.Frame{
		pose.Sample{Time: 0.0, Metric: 0.0}.Frame(),
		pose.Sample{Time: 0.5, Metric: 0.5}.Frame(),
		pose.Sample{Time: 1.0, Metric: 1.5}.Frame(),
	}

	f := Extract(frames)

	// velocities 1.0 and 2.0 over two pairs
	if !approx(f.Metric(), 1.5, 1e-5) {
		t.Errorf("Expected metric velocity 1.5, got %v", f.Metric())
	}
	if !approx(f.MovementIntensity, 1.5, 1e-5) {
		t.Errorf("Expected intensity 1.5, got %v", f.MovementIntensity)
	}
	if f.Symmetry != 1 {
		t.Errorf("Expected symmetry 1 without lateral joints, got %v", f.Symmetry)
	}
}

func TestExtract_MissingJointsContributeNothing(t *testing.T) {
	frames := []pose.Frame{
		{Time: 0, Joints: map[pose.JointName]pose.JointPoint{
			pose.LeftWrist:  {X: 0, Y: 0},
			pose.RightWrist: {X: 0, Y: 0},
		}},
		{Time: 1, Joints: map[pose.JointName]pose.JointPoint{
			pose.LeftWrist: {X: 0, Y: 1},
		}},
	}

	f := Extract(frames)
	if _, ok := f.JointVelocities[string(pose.RightWrist)]; ok {
		t.Error("Expected no velocity for a joint missing from the newer frame")
	}
	if !approx(f.JointVelocities[string(pose.LeftWrist)], 1, 1e-6) {
		t.Errorf("Expected left wrist velocity 1, got %v", f.JointVelocities[string(pose.LeftWrist)])
	}
	if f.Symmetry != 0 {
		t.Errorf("Expected symmetry 0 with only the left side moving, got %v", f.Symmetry)
	}
}

func TestExtract_Symmetry(t *testing.T) {
	frames := []pose.Frame{
		{Time: 0, Joints: map[pose.JointName]pose.JointPoint{
			pose.LeftWrist:  {X: 0, Y: 0},
			pose.RightWrist: {X: 0, Y: 0},
		}},
		{Time: 1, Joints: map[pose.JointName]pose.JointPoint{
			pose.LeftWrist:  {X: 0, Y: 1},
			pose.RightWrist: {X: 0, Y: 0.5},
		}},
	}

	f := Extract(frames)
	if !approx(f.Symmetry, 0.5, 1e-6) {
		t.Errorf("Expected symmetry 0.5, got %v", f.Symmetry)
	}
	// RMS of {1, 0.5} over one sample
	want := float32(math.Sqrt((1 + 0.25) / 2))
	if !approx(f.MovementIntensity, want, 1e-6) {
		t.Errorf("Expected intensity %v, got %v", want, f.MovementIntensity)
	}
}

func TestExtract_AnglesFromNewestFrame(t *testing.T) {
	bent := map[pose.JointName]pose.JointPoint{
		pose.RightShoulder: {X: 0, Y: 1},
		pose.RightElbow:    {X: 0, Y: 0},
		pose.RightWrist:    {X: 1, Y: 0},
	}
	straight := map[pose.JointName]pose.JointPoint{
		pose.RightShoulder: {X: 0, Y: 1},
		pose.RightElbow:    {X: 0, Y: 0},
		pose.RightWrist:    {X: 0, Y: -1},
	}

	f := Extract([]pose.Frame{{Time: 0, Joints: bent}, {Time: 1, Joints: straight}})

	got, ok := f.JointAngles["rightElbow"]
	if !ok {
		t.Fatal("Expected rightElbow angle")
	}
	if !approx(got, math.Pi, 1e-5) {
		t.Errorf("Expected angle from newest frame (π), got %v", got)
	}
	if _, ok := f.JointAngles["leftKnee"]; ok {
		t.Error("Expected leftKnee to be skipped when joints are absent")
	}
}

func TestExtractor_CachePruned(t *testing.T) {
	e := NewExtractor(30)
	for i := 0; i <= 300; i++ {
		e.ProcessFrame(pose.Sample{Time: float64(i) * 0.1, Metric: 0}.Frame())
	}

	cached := e.CachedFeatures()
	// newest is 30.0s, so roughly [20.0, 30.0] survives
	if len(cached) < 100 || len(cached) > 101 {
		t.Errorf("Expected 100-101 cached entries, got %d", len(cached))
	}
	if e.Buffer().Len() != 30 {
		t.Errorf("Expected buffer to hold 30 frames, got %d", e.Buffer().Len())
	}
}

func TestExtractor_Reset(t *testing.T) {
	e := NewExtractor(10)
	e.ProcessFrame(pose.Sample{Time: 0}.Frame())
	e.ProcessFrame(pose.Sample{Time: 0.1, Metric: 1}.Frame())
	e.Reset()

	if e.Buffer().Len() != 0 || len(e.CachedFeatures()) != 0 {
		t.Error("Expected empty state after Reset")
	}
	if f := e.ProcessFrame(pose.Sample{Time: 0.2, Metric: 5}.Frame()); f.MovementIntensity != 0 {
		t.Errorf("Expected neutral features right after Reset, got %v", f.MovementIntensity)
	}
}

func TestClassifyPhase(t *testing.T) {
	tests := []struct {
		name      string
		intensity float32
		metric    float32
		want      Phase
	}{
		{"rest", 0.05, 1, PhaseRest},
		{"eccentric", 0.5, 0.3, PhaseEccentric},
		{"concentric", 0.5, 0, PhaseConcentric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Features{
				JointVelocities:   map[string]float32{MetricKey: tt.metric},
				MovementIntensity: tt.intensity,
			}
			if got := ClassifyPhase(f); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParsePhase(t *testing.T) {
	for _, p := range Phases {
		got, ok := ParsePhase(p.String())
		if !ok || got != p {
			t.Errorf("ParsePhase(%q) = %v,%v", p.String(), got, ok)
		}
	}
	if _, ok := ParsePhase("bogus"); ok {
		t.Error("Expected unknown phase name to fail")
	}
}
