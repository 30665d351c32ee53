package websocket

import (
	"time"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	// Device to server.
	MessageTypeDetectStart MessageType = "detect_start"
	MessageTypeDetectStop  MessageType = "detect_stop"
	MessageTypeLevel       MessageType = "level"
	MessageTypePing        MessageType = "ping"

	// Server to device.
	MessageTypeDetectStarted  MessageType = "detect_started"
	MessageTypeDetectStopped  MessageType = "detect_stopped"
	MessageTypeCaptureRequest MessageType = "capture_request"
	MessageTypeDetection      MessageType = "detection"
	MessageTypeDetectError    MessageType = "detect_error"
	MessageTypePong           MessageType = "pong"
	MessageTypeError          MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// DetectStartMessage asks the server to start the auto-detect loop for this
// connection. All tuning fields are optional; zero means the server default.
type DetectStartMessage struct {
	BaseMessage
	Species        string  `json:"species,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
	CooldownMs     int     `json:"cooldown_ms,omitempty"`
	SamplePeriodMs int     `json:"sample_period_ms,omitempty"`
	ClipDurationMs int     `json:"clip_duration_ms,omitempty"`
}

// LevelMessage carries an amplitude sample from the device's microphone meter.
type LevelMessage struct {
	BaseMessage
	Value float64 `json:"value"`
}

// DetectStartedMessage acknowledges detect_start with the effective tuning.
type DetectStartedMessage struct {
	BaseMessage
	SessionID  string  `json:"session_id,omitempty"`
	Species    string  `json:"species"`
	Threshold  float64 `json:"threshold"`
	CooldownMs int     `json:"cooldown_ms"`
}

// CaptureRequestMessage asks the device to record and send one clip as a
// binary frame.
type CaptureRequestMessage struct {
	BaseMessage
	DurationMs int `json:"duration_ms"`
}

// DetectionEvent reports one completed detection back to the device.
type DetectionEvent struct {
	BaseMessage
	SessionID string             `json:"session_id,omitempty"`
	Level     float64            `json:"level,omitempty"`
	Detection entities.Detection `json:"detection"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code,omitempty"`
	Message string `json:"message"`
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(msgType MessageType, code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(msgType),
		Code:        code,
		Message:     message,
	}
}
