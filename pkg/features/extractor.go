package features

import (
	"math"
	"sort"
	"strings"

	"github.com/teslashibe/go-repcount/pkg/pose"
)

const (
	// windowFrames is the number of frames analysed per update.
	windowFrames = 3

	// cacheHorizon is how long computed features are retained (seconds).
	cacheHorizon = 10.0

	// Rough per-item footprints used for memory accounting.
	frameOverheadBytes   = 64
	jointBytes           = 48
	featuresBytes        = 256
	averageJointsPerPose = 17
)

// angleTriples are the joint angles reported at the newest frame.
var angleTriples = []struct {
	name    string
	a, b, c pose.JointName
}{
	{"leftElbow", pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
	{"rightElbow", pose.RightShoulder, pose.RightElbow, pose.RightWrist},
	{"leftKnee", pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
	{"rightKnee", pose.RightHip, pose.RightKnee, pose.RightAnkle},
}

// Extractor computes features frame by frame from a sliding window.
// It is not safe for concurrent use.
type Extractor struct {
	buffer *pose.FrameBuffer
	cache  map[float64]Features
}

// NewExtractor creates an extractor retaining bufferSize frames.
func NewExtractor(bufferSize int) *Extractor {
	return &Extractor{
		buffer: pose.NewFrameBuffer(bufferSize),
		cache:  make(map[float64]Features),
	}
}

// ProcessFrame appends the frame and returns features for the newest window.
func (e *Extractor) ProcessFrame(f pose.Frame) Features {
	e.buffer.Append(f)
	features := Extract(e.buffer.RecentFrames(windowFrames))

	e.cache[f.Time] = features
	cutoff := f.Time - cacheHorizon
	for ts := range e.cache {
		if ts < cutoff {
			delete(e.cache, ts)
		}
	}
	return features
}

// Buffer exposes the underlying frame history.
func (e *Extractor) Buffer() *pose.FrameBuffer {
	return e.buffer
}

// CachedFeatures returns the retained features, oldest first.
func (e *Extractor) CachedFeatures() []Features {
	times := make([]float64, 0, len(e.cache))
	for ts := range e.cache {
		times = append(times, ts)
	}
	sort.Float64s(times)

	out := make([]Features, len(times))
	for i, ts := range times {
		out[i] = e.cache[ts]
	}
	return out
}

// MemoryEstimate approximates the bytes held by the frame buffer and cache.
func (e *Extractor) MemoryEstimate() int64 {
	frames := int64(e.buffer.Cap()) * (frameOverheadBytes + averageJointsPerPose*jointBytes)
	return frames + int64(len(e.cache))*featuresBytes
}

// Reset clears frame history and cached features.
func (e *Extractor) Reset() {
	e.buffer.Reset()
	e.cache = make(map[float64]Features)
}

// Extract computes features for a chronological window of frames.
// Windows shorter than two frames, or without any joint shared across a
// positive time step, yield Neutral().
func Extract(frames []pose.Frame) Features {
	if len(frames) < 2 {
		return Neutral()
	}

	sums := make(map[pose.JointName]float32)
	var leftTotal, rightTotal float32
	count := 0

	for i := 1; i < len(frames); i++ {
		prev, cur := frames[i-1], frames[i]
		dt := float32(cur.Time - prev.Time)
		if dt <= 0 {
			continue
		}
		for name, p2 := range cur.Joints {
			p1, ok := prev.Joints[name]
			if !ok {
				continue
			}
			v := float32(math.Hypot(p2.X-p1.X, p2.Y-p1.Y)) / dt
			sums[name] += v
			switch {
			case strings.Contains(string(name), "left"):
				leftTotal += v
			case strings.Contains(string(name), "right"):
				rightTotal += v
			}
		}
		count++
	}

	if count == 0 || len(sums) == 0 {
		return Neutral()
	}

	n := float32(count)
	velocities := make(map[string]float32, len(sums)+1)
	var total, squares float32
	for name, sum := range sums {
		velocities[string(name)] = sum / n
		total += sum
		squares += sum * sum
	}
	velocities[MetricKey] = total / float32(len(sums)) / n

	rms := float32(math.Sqrt(float64(squares/float32(len(sums))))) / n

	symmetry := float32(1)
	if hi := max(leftTotal, rightTotal); hi > 0 {
		symmetry = min(leftTotal, rightTotal) / hi
	}

	return Features{
		JointVelocities:   velocities,
		JointAngles:       jointAngles(frames[len(frames)-1]),
		MovementIntensity: rms,
		Symmetry:          symmetry,
	}
}

func jointAngles(f pose.Frame) map[string]float32 {
	angles := make(map[string]float32, len(angleTriples))
	for _, tr := range angleTriples {
		if a, ok := f.Angle(tr.a, tr.b, tr.c); ok {
			angles[tr.name] = float32(a)
		}
	}
	return angles
}
