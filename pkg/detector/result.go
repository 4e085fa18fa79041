package detector

import "github.com/teslashibe/go-repcount/pkg/features"

// RepetitionLog describes one accepted repetition. It is a plain value;
// the detector keeps no reference to it once emitted.
type RepetitionLog struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Confidence float32 `json:"confidence"`
}

// Duration returns EndTime - StartTime in seconds.
func (l RepetitionLog) Duration() float64 {
	return l.EndTime - l.StartTime
}

// Result kinds, as reported by Result.Kind.
const (
	KindMonitoring           = "monitoring"
	KindRepetitionStarted    = "repetition_started"
	KindRepetitionInProgress = "repetition_in_progress"
	KindRepetitionCompleted  = "repetition_completed"
	KindRepetitionRejected   = "repetition_rejected"
)

// Result is the outcome of processing one frame. The set of
// implementations is closed: Monitoring, RepetitionStarted,
// RepetitionInProgress, RepetitionCompleted and RepetitionRejected.
type Result interface {
	Kind() string
	isResult()
}

// Monitoring means no repetition is being tracked (or a transition was
// silent).
type Monitoring struct{}

// RepetitionStarted is emitted on the first frame of candidate motion.
type RepetitionStarted struct {
	Confidence float32
}

// RepetitionInProgress is emitted while a confirmed repetition continues.
type RepetitionInProgress struct {
	Phase features.Phase
}

// RepetitionCompleted carries an accepted repetition.
type RepetitionCompleted struct {
	Log RepetitionLog
}

// RepetitionRejected reports a motion cycle that failed validation.
type RepetitionRejected struct {
	Reason string
}

func (Monitoring) Kind() string           { return KindMonitoring }
func (RepetitionStarted) Kind() string    { return KindRepetitionStarted }
func (RepetitionInProgress) Kind() string { return KindRepetitionInProgress }
func (RepetitionCompleted) Kind() string  { return KindRepetitionCompleted }
func (RepetitionRejected) Kind() string   { return KindRepetitionRejected }

func (Monitoring) isResult()           {}
func (RepetitionStarted) isResult()    {}
func (RepetitionInProgress) isResult() {}
func (RepetitionCompleted) isResult()  {}
func (RepetitionRejected) isResult()   {}
