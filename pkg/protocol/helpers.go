package protocol

import (
	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/engine"
	"github.com/teslashibe/go-repcount/pkg/pose"
)

// =============================================================================
// Conversions
// =============================================================================

// PoseFromFrame converts a pose frame to wire form
func PoseFromFrame(f pose.Frame) PoseData {
	joints := make(map[string]JointData, len(f.Joints))
	for name, j := range f.Joints {
		joints[string(name)] = JointData{X: j.X, Y: j.Y, Confidence: j.Confidence}
	}
	return PoseData{Time: f.Time, Joints: joints}
}

// Frame converts the wire pose back to a pose frame
func (p *PoseData) Frame() pose.Frame {
	joints := make(map[pose.JointName]pose.JointPoint, len(p.Joints))
	for name, j := range p.Joints {
		joints[pose.JointName(name)] = pose.JointPoint{X: j.X, Y: j.Y, Confidence: j.Confidence}
	}
	return pose.Frame{Time: p.Time, Joints: joints}
}

// Sample converts the wire sample to a pose sample
func (s *SampleData) Sample() pose.Sample {
	return pose.Sample{Time: s.Time, Metric: s.Metric}
}

// EventFromUpdate flattens an engine update
func EventFromUpdate(u engine.Update) EventData {
	ev := EventData{
		Kind:      u.Kind(),
		Time:      u.Time,
		Count:     u.Count,
		Quality:   u.Quality.String(),
		Intensity: u.Intensity,
	}
	if u.Skipped {
		ev.Reason = string(u.SkipReason)
		return ev
	}

	switch r := u.Result.(type) {
	case detector.RepetitionStarted:
		ev.Confidence = r.Confidence
	case detector.RepetitionInProgress:
		ev.Phase = r.Phase.String()
	case detector.RepetitionCompleted:
		rep := &RepetitionData{
			StartTime:  r.Log.StartTime,
			EndTime:    r.Log.EndTime,
			Duration:   r.Log.Duration(),
			Confidence: r.Log.Confidence,
		}
		if u.Repetition != nil {
			rep.ID = u.Repetition.ID
		}
		ev.Confidence = r.Log.Confidence
		ev.Repetition = rep
	case detector.RepetitionRejected:
		ev.Reason = r.Reason
	}
	return ev
}

// StatusFromEngine converts an engine status snapshot
func StatusFromEngine(st engine.Status) StatusData {
	return StatusData{
		Detector:         st.State,
		Quality:          st.Quality,
		Count:            st.Count,
		Frames:           st.Frames,
		Skipped:          st.Skipped,
		AverageFrameMs:   float64(st.AverageFrameTime.Microseconds()) / 1000,
		MemoryUsage:      st.MemoryUsage,
		MemoryBudget:     st.MemoryBudget,
		MemoryReductions: st.Reductions,
	}
}

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewPoseMessage creates a pose message from a frame
func NewPoseMessage(f pose.Frame) (*Message, error) {
	return NewMessage(TypePose, PoseFromFrame(f))
}

// NewSampleMessage creates a sample message
func NewSampleMessage(s pose.Sample) (*Message, error) {
	return NewMessage(TypeSample, SampleData{Time: s.Time, Metric: s.Metric})
}

// NewControlMessage creates a session control message
func NewControlMessage(action, exercise string) (*Message, error) {
	return NewMessage(TypeControl, ControlData{Action: action, Exercise: exercise})
}

// NewEventMessage creates an event message from an engine update
func NewEventMessage(u engine.Update) (*Message, error) {
	return NewMessage(TypeEvent, EventFromUpdate(u))
}

// NewStatusMessage creates a status message
func NewStatusMessage(st StatusData) (*Message, error) {
	return NewMessage(TypeStatus, st)
}

// NewErrorMessage creates an error message
func NewErrorMessage(msgType MessageType, err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: err.Error(), Type: string(msgType)})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetPoseData extracts pose data from a message
func (m *Message) GetPoseData() (*PoseData, error) {
	var data PoseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSampleData extracts sample data from a message
func (m *Message) GetSampleData() (*SampleData, error) {
	var data SampleData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetControlData extracts control data from a message
func (m *Message) GetControlData() (*ControlData, error) {
	var data ControlData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetEventData extracts event data from a message
func (m *Message) GetEventData() (*EventData, error) {
	var data EventData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
