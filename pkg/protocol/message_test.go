package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/engine"
	"github.com/teslashibe/go-repcount/pkg/features"
	"github.com/teslashibe/go-repcount/pkg/performance"
	"github.com/teslashibe/go-repcount/pkg/pose"
	"github.com/teslashibe/go-repcount/pkg/session"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "sample message",
			msgType: TypeSample,
			data:    SampleData{Time: 1.5, Metric: 0.3},
			wantErr: false,
		},
		{
			name:    "control message",
			msgType: TypeControl,
			data:    ControlData{Action: ActionStart, Exercise: "squat"},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeEvent,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestPoseMessage(t *testing.T) {
	frame := pose.Frame{
		Time: 2.25,
		Joints: map[pose.JointName]pose.JointPoint{
			pose.LeftKnee:  {X: 0.4, Y: 0.7, Confidence: 0.9},
			pose.RightKnee: {X: 0.6, Y: 0.7, Confidence: 0.8},
		},
	}

	msg, err := NewPoseMessage(frame)
	if err != nil {
		t.Fatalf("NewPoseMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypePose {
		t.Errorf("Type = %v, want %v", parsed.Type, TypePose)
	}

	data, err := parsed.GetPoseData()
	if err != nil {
		t.Fatalf("GetPoseData() error = %v", err)
	}
	got := data.Frame()

	if got.Time != 2.25 {
		t.Errorf("Time = %v, want 2.25", got.Time)
	}
	if len(got.Joints) != 2 {
		t.Fatalf("Joints = %d, want 2", len(got.Joints))
	}
	if got.Joints[pose.LeftKnee] != frame.Joints[pose.LeftKnee] {
		t.Errorf("leftKnee = %+v, want %+v", got.Joints[pose.LeftKnee], frame.Joints[pose.LeftKnee])
	}
}

func TestSampleMessage(t *testing.T) {
	msg, err := NewSampleMessage(pose.Sample{Time: 0.5, Metric: 1.2})
	if err != nil {
		t.Fatalf("NewSampleMessage() error = %v", err)
	}

	data, err := msg.GetSampleData()
	if err != nil {
		t.Fatalf("GetSampleData() error = %v", err)
	}
	s := data.Sample()
	if s.Time != 0.5 || s.Metric != 1.2 {
		t.Errorf("Sample = %+v, want {0.5 1.2}", s)
	}

	// a sample becomes a single-joint frame downstream
	if f := s.Frame(); len(f.Joints) != 1 {
		t.Errorf("Frame joints = %d, want 1", len(f.Joints))
	}
}

func TestControlMessage(t *testing.T) {
	msg, err := NewControlMessage(ActionStart, "curl")
	if err != nil {
		t.Fatalf("NewControlMessage() error = %v", err)
	}
	data, err := msg.GetControlData()
	if err != nil {
		t.Fatalf("GetControlData() error = %v", err)
	}
	if data.Action != ActionStart || data.Exercise != "curl" {
		t.Errorf("Control = %+v, want start/curl", data)
	}
}

func TestEventFromUpdate(t *testing.T) {
	tests := []struct {
		name   string
		update engine.Update
		check  func(t *testing.T, ev EventData)
	}{
		{
			name:   "monitoring",
			update: engine.Update{Time: 1, Result: detector.Monitoring{}, Count: 2},
			check: func(t *testing.T, ev EventData) {
				if ev.Kind != detector.KindMonitoring || ev.Count != 2 {
					t.Errorf("Event = %+v, want monitoring with count 2", ev)
				}
			},
		},
		{
			name:   "started",
			update: engine.Update{Result: detector.RepetitionStarted{Confidence: 0.1}},
			check: func(t *testing.T, ev EventData) {
				if ev.Kind != detector.KindRepetitionStarted || ev.Confidence != 0.1 {
					t.Errorf("Event = %+v, want started at 0.1", ev)
				}
			},
		},
		{
			name:   "in progress",
			update: engine.Update{Result: detector.RepetitionInProgress{Phase: features.PhaseConcentric}},
			check: func(t *testing.T, ev EventData) {
				if ev.Phase != features.PhaseConcentric.String() {
					t.Errorf("Phase = %q, want %q", ev.Phase, features.PhaseConcentric.String())
				}
			},
		},
		{
			name: "completed in session",
			update: engine.Update{
				Result:     detector.RepetitionCompleted{Log: detector.RepetitionLog{StartTime: 1, EndTime: 3, Confidence: 0.8}},
				Repetition: &session.Repetition{ID: "rep-1"},
				Count:      1,
				Quality:    performance.QualityMedium,
			},
			check: func(t *testing.T, ev EventData) {
				if ev.Repetition == nil {
					t.Fatal("Repetition should be set")
				}
				if ev.Repetition.ID != "rep-1" || ev.Repetition.Duration != 2 {
					t.Errorf("Repetition = %+v, want rep-1 lasting 2s", ev.Repetition)
				}
				if ev.Quality != "medium" {
					t.Errorf("Quality = %v, want medium", ev.Quality)
				}
			},
		},
		{
			name:   "completed without session",
			update: engine.Update{Result: detector.RepetitionCompleted{Log: detector.RepetitionLog{StartTime: 1, EndTime: 2}}},
			check: func(t *testing.T, ev EventData) {
				if ev.Repetition == nil || ev.Repetition.ID != "" {
					t.Errorf("Repetition = %+v, want unlogged repetition", ev.Repetition)
				}
			},
		},
		{
			name:   "rejected",
			update: engine.Update{Result: detector.RepetitionRejected{Reason: "too fast (0.57s)"}},
			check: func(t *testing.T, ev EventData) {
				if ev.Reason != "too fast (0.57s)" {
					t.Errorf("Reason = %q", ev.Reason)
				}
			},
		},
		{
			name:   "skipped",
			update: engine.Update{Skipped: true, SkipReason: engine.SkipOutOfOrder},
			check: func(t *testing.T, ev EventData) {
				if ev.Kind != engine.KindSkipped || ev.Reason != "out_of_order" {
					t.Errorf("Event = %+v, want out_of_order skip", ev)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, EventFromUpdate(tt.update))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage(TypePose, errors.New("bad frame"))
	if err != nil {
		t.Fatalf("NewErrorMessage() error = %v", err)
	}
	data, err := msg.GetErrorData()
	if err != nil {
		t.Fatalf("GetErrorData() error = %v", err)
	}
	if data.Message != "bad frame" || data.Type != "pose" {
		t.Errorf("Error = %+v, want bad frame/pose", data)
	}
}

func TestPingPongMessage(t *testing.T) {
	ping, err := NewPingMessage("abc")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}
	pingData, err := ping.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID != "abc" {
		t.Errorf("ID = %v, want abc", pingData.ID)
	}

	pong, err := NewPongMessage("abc", 1000, 1025)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	pongData, err := pong.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pongData.LatencyMs != 25 {
		t.Errorf("LatencyMs = %v, want 25", pongData.LatencyMs)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "empty json",
			input:   "{}",
			wantErr: false, // Empty is valid, just no type
		},
		{
			name:    "valid message",
			input:   `{"type":"sample","ts":1234567890,"data":{"time":1,"metric":0.2}}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	msg, _ := NewStatusMessage(StatusData{Detector: "monitoring", Quality: "high", Session: "idle"})

	bytes, _ := msg.Bytes()

	var parsed map[string]interface{}
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "status" {
		t.Errorf("type = %v, want status", parsed["type"])
	}
	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}
	data, ok := parsed["data"].(map[string]interface{})
	if !ok {
		t.Fatal("data field should be an object")
	}
	if data["detector"] != "monitoring" {
		t.Errorf("data.detector = %v, want monitoring", data["detector"])
	}
}

func BenchmarkParsePoseMessage(b *testing.B) {
	msg, _ := NewPoseMessage(pose.SyntheticFrames(pose.DefaultCycleOptions(1))[40])
	bytes, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m, _ := ParseMessage(bytes)
		d, _ := m.GetPoseData()
		_ = d.Frame()
	}
}
