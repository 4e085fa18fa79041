// Package pose defines the timestamped body-pose values consumed by the
// repetition detector, plus a bounded frame history with time queries.
package pose

import "math"

// JointName identifies a body joint.
type JointName string

// Supported joints. Names containing "left" or "right" feed the bilateral
// symmetry measure.
const (
	Root          JointName = "root"
	Neck          JointName = "neck"
	Nose          JointName = "nose"
	LeftEye       JointName = "leftEye"
	RightEye      JointName = "rightEye"
	LeftEar       JointName = "leftEar"
	RightEar      JointName = "rightEar"
	LeftShoulder  JointName = "leftShoulder"
	RightShoulder JointName = "rightShoulder"
	LeftElbow     JointName = "leftElbow"
	RightElbow    JointName = "rightElbow"
	LeftWrist     JointName = "leftWrist"
	RightWrist    JointName = "rightWrist"
	LeftHip       JointName = "leftHip"
	RightHip      JointName = "rightHip"
	LeftKnee      JointName = "leftKnee"
	RightKnee     JointName = "rightKnee"
	LeftAnkle     JointName = "leftAnkle"
	RightAnkle    JointName = "rightAnkle"

	// Metric is the synthetic joint carrying a scalar Sample.
	Metric JointName = "metric"
)

// JointPoint is a joint location (normalized image coordinates) with
// detector confidence.
type JointPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Frame is one timestamped pose observation. Missing joints are simply
// absent from the map.
type Frame struct {
	Time   float64                  `json:"time"` // seconds, caller-supplied monotonic clock
	Joints map[JointName]JointPoint `json:"joints"`
}

// Sample is the scalar fallback when full joint data is unavailable
// (e.g. a single joint angle).
type Sample struct {
	Time   float64 `json:"time"`
	Metric float64 `json:"metric"`
}

// Frame converts the sample into a frame with a single synthetic joint so
// it can flow through the same feature pipeline.
func (s Sample) Frame() Frame {
	return Frame{
		Time: s.Time,
		Joints: map[JointName]JointPoint{
			Metric: {X: s.Metric, Confidence: 1},
		},
	}
}

// ToSample reduces the frame to a scalar sample using the right elbow
// angle. Returns metric 0 when the arm is not fully visible.
func (f Frame) ToSample() Sample {
	angle, ok := f.Angle(RightShoulder, RightElbow, RightWrist)
	if !ok {
		return Sample{Time: f.Time}
	}
	return Sample{Time: f.Time, Metric: angle}
}

// Angle returns the angle in radians at joint b formed by a-b-c.
// ok is false if any joint is missing or a limb has zero length.
func (f Frame) Angle(a, b, c JointName) (float64, bool) {
	p1, ok1 := f.Joints[a]
	p2, ok2 := f.Joints[b]
	p3, ok3 := f.Joints[c]
	if !ok1 || !ok2 || !ok3 {
		return 0, false
	}
	return Angle(p1, p2, p3)
}

// Angle computes the three-point angle at vertex b.
func Angle(a, b, c JointPoint) (float64, bool) {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y
	m1 := math.Hypot(v1x, v1y)
	m2 := math.Hypot(v2x, v2y)
	if m1 == 0 || m2 == 0 {
		return 0, false
	}
	cos := (v1x*v2x + v1y*v2y) / (m1 * m2)
	return math.Acos(clamp(cos, -1, 1)), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
