// Package features turns a short window of pose frames into movement
// features: joint velocities, joint angles, overall intensity and bilateral
// symmetry.
package features

// MetricKey is the synthetic velocity entry holding the mean joint velocity.
// Scalar-only pipelines read their single signal from it.
const MetricKey = "metric"

// Features is a movement snapshot derived from the most recent frames.
type Features struct {
	JointVelocities   map[string]float32 `json:"joint_velocities"`
	JointAngles       map[string]float32 `json:"joint_angles"`
	MovementIntensity float32            `json:"movement_intensity"`
	Symmetry          float32            `json:"symmetry"` // 0..1, 1 = perfectly balanced
}

// Neutral is the value returned when there is not enough data: no motion
// and perfect symmetry.
func Neutral() Features {
	return Features{
		JointVelocities: map[string]float32{},
		JointAngles:     map[string]float32{},
		Symmetry:        1,
	}
}

// Metric returns the scalar velocity signal.
func (f Features) Metric() float32 {
	return f.JointVelocities[MetricKey]
}
