// Package protocol defines the WebSocket message types exchanged between
// pose sources, the repcount server and dashboard clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Source → Server messages
	TypePose    MessageType = "pose"    // Full pose frame
	TypeSample  MessageType = "sample"  // Scalar metric sample
	TypeControl MessageType = "control" // Session control

	// Server → Client messages
	TypeEvent  MessageType = "event"  // Detector outcome for one frame
	TypeStatus MessageType = "status" // Engine and session status
	TypeError  MessageType = "error"  // Rejected inbound message

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Source → Server Message Types
// =============================================================================

// PoseData contains one pose frame
type PoseData struct {
	Time   float64              `json:"time"` // Seconds on the source's clock
	Joints map[string]JointData `json:"joints"`
}

// JointData is one joint in normalized image coordinates
type JointData struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// SampleData contains a scalar metric (e.g. a joint angle)
type SampleData struct {
	Time   float64 `json:"time"`
	Metric float64 `json:"metric"`
}

// Control actions
const (
	ActionStart  = "start"
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionEnd    = "end"
)

// ControlData drives the session lifecycle
type ControlData struct {
	Action   string `json:"action"`
	Exercise string `json:"exercise,omitempty"` // Only for start
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// EventData describes the detector outcome for one frame
type EventData struct {
	Kind       string          `json:"kind"` // Result kind, or frame_skipped
	Time       float64         `json:"time"`
	Count      int             `json:"count"`
	Quality    string          `json:"quality"`
	Intensity  float32         `json:"intensity"`
	Confidence float32         `json:"confidence,omitempty"`
	Phase      string          `json:"phase,omitempty"`
	Reason     string          `json:"reason,omitempty"` // Rejection or skip reason
	Repetition *RepetitionData `json:"repetition,omitempty"`
}

// RepetitionData is a completed repetition
type RepetitionData struct {
	ID         string  `json:"id,omitempty"` // Empty outside a session
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Duration   float64 `json:"duration"`
	Confidence float32 `json:"confidence"`
}

// StatusData contains engine and session state
type StatusData struct {
	Detector         string  `json:"detector"` // State name
	Quality          string  `json:"quality"`
	Count            int     `json:"count"`
	Frames           uint64  `json:"frames"`
	Skipped          uint64  `json:"skipped"`
	AverageFrameMs   float64 `json:"average_frame_ms"`
	MemoryUsage      int64   `json:"memory_usage"`
	MemoryBudget     int64   `json:"memory_budget"`
	MemoryReductions int     `json:"memory_reductions"`
	Session          string  `json:"session"` // idle, running, paused, ended
	SessionID        string  `json:"session_id,omitempty"`
	Exercise         string  `json:"exercise,omitempty"`
	Clients          int     `json:"clients"`
}

// ErrorData reports why an inbound message was rejected
type ErrorData struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"` // Offending message type
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
