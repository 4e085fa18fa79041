package pose

import (
	"math"
	"testing"
)

func TestAngle_RightAngle(t *testing.T) {
	a := JointPoint{X: 0, Y: 1}
	b := JointPoint{X: 0, Y: 0}
	c := JointPoint{X: 1, Y: 0}

	got, ok := Angle(a, b, c)
	if !ok {
		t.Fatal("Expected angle to be defined")
	}
	if math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("Expected π/2, got %v", got)
	}
}

func TestAngle_ZeroLengthLimb(t *testing.T) {
	p := JointPoint{X: 0.5, Y: 0.5}
	if _, ok := Angle(p, p, JointPoint{X: 1}); ok {
		t.Error("Expected zero-length limb to be rejected")
	}
}

func TestFrame_ToSample(t *testing.T) {
	f := Frame{
		Time: 2.5,
		Joints: map[JointName]JointPoint{
			RightShoulder: {X: 0, Y: 1},
			RightElbow:    {X: 0, Y: 0},
			RightWrist:    {X: 0, Y: -1},
		},
	}

	s := f.ToSample()
	if s.Time != 2.5 {
		t.Errorf("Expected time 2.5, got %v", s.Time)
	}
	if math.Abs(s.Metric-math.Pi) > 1e-9 {
		t.Errorf("Expected straight arm angle π, got %v", s.Metric)
	}

	delete(f.Joints, RightWrist)
	if got := f.ToSample().Metric; got != 0 {
		t.Errorf("Expected metric 0 with missing wrist, got %v", got)
	}
}

func TestSample_Frame(t *testing.T) {
	f := Sample{Time: 1, Metric: 0.7}.Frame()
	p, ok := f.Joints[Metric]
	if !ok {
		t.Fatal("Expected synthetic metric joint")
	}
	if p.X != 0.7 || p.Confidence != 1 {
		t.Errorf("Expected {X:0.7 Confidence:1}, got %+v", p)
	}
}

func TestFrameBuffer_RecentFrames(t *testing.T) {
	b := NewFrameBuffer(4)
	for i := 0; i < 6; i++ {
		b.Append(Frame{Time: float64(i)})
	}

	recent := b.RecentFrames(3)
	if len(recent) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(recent))
	}
	for i, want := range []float64{3, 4, 5} {
		if recent[i].Time != want {
			t.Errorf("frame %d: expected time %v, got %v", i, want, recent[i].Time)
		}
	}

	if got := len(b.RecentFrames(10)); got != 4 {
		t.Errorf("Expected RecentFrames to cap at 4, got %d", got)
	}
}

func TestFrameBuffer_TimeWindow(t *testing.T) {
	b := NewFrameBuffer(10)
	for _, ts := range []float64{0, 0.5, 1.0, 1.5, 2.0} {
		b.Append(Frame{Time: ts})
	}

	tests := []struct {
		name     string
		duration float64
		want     int
	}{
		{"inclusive boundary", 1.0, 3},
		{"newest only", 0.1, 1},
		{"everything", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.TimeWindow(tt.duration)
			if len(got) != tt.want {
				t.Fatalf("Expected %d frames, got %d", tt.want, len(got))
			}
			if got[len(got)-1].Time != 2.0 {
				t.Errorf("Expected newest frame last, got %v", got[len(got)-1].Time)
			}
		})
	}

	empty := NewFrameBuffer(3)
	if got := empty.TimeWindow(1); len(got) != 0 {
		t.Errorf("Expected empty window, got %d frames", len(got))
	}
}

func TestMockSamples(t *testing.T) {
	samples := MockSamples(3, 0.1)
	if len(samples) != 9 {
		t.Fatalf("Expected 9 samples, got %d", len(samples))
	}
	if samples[1].Metric != 0 || samples[2].Metric != 1 {
		t.Errorf("Expected down/up pattern, got %+v", samples[:3])
	}
}

func TestSyntheticSamples_Shape(t *testing.T) {
	o := DefaultCycleOptions(2)
	samples := SyntheticSamples(o)

	wantLen := int(math.Round((o.LeadIn + 2*(o.MoveDuration+o.RestDuration)) * o.FPS))
	if len(samples) != wantLen {
		t.Errorf("Expected %d samples, got %d", wantLen, len(samples))
	}

	var peak float64
	for i, s := range samples {
		if i > 0 && s.Time <= samples[i-1].Time {
			t.Fatalf("Expected increasing timestamps at %d", i)
		}
		peak = math.Max(peak, s.Metric)
	}
	if math.Abs(peak-o.Amplitude) > 0.01 {
		t.Errorf("Expected peak near %v, got %v", o.Amplitude, peak)
	}
}
