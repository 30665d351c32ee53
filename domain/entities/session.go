package entities

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionStatus represents the status of a listening session
type SessionStatus string

const (
	SessionStatusActive     SessionStatus = "active"
	SessionStatusExpired    SessionStatus = "expired"
	SessionStatusTerminated SessionStatus = "terminated"
)

// SessionDetection is a single detection recorded within a listening session
type SessionDetection struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Detection Detection `json:"detection" bson:"detection"`
	Level     float64   `json:"level,omitempty" bson:"level,omitempty"`
}

// SessionMetadata contains session-level metadata
type SessionMetadata struct {
	Threshold float64       `json:"threshold" bson:"threshold"`
	Cooldown  time.Duration `json:"cooldown" bson:"cooldown"`
}

// Session represents a run of auto-detection for one device: everything the
// capture loop detected (and translated) while that device was listening.
type Session struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	DeviceID        string             `json:"device_id" bson:"device_id"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	LastActiveAt    time.Time          `json:"last_active_at" bson:"last_active_at"`
	LastDetectionAt *time.Time         `json:"last_detection_at" bson:"last_detection_at"`
	ExpiresAt       time.Time          `json:"expires_at" bson:"expires_at"`
	Status          SessionStatus      `json:"status" bson:"status"`
	Detections      []SessionDetection `json:"detections" bson:"detections"`
	Metadata        SessionMetadata    `json:"metadata" bson:"metadata"`
}

// NewSession creates a new listening session for a device
func NewSession(deviceID string) *Session {
	now := time.Now()
	return &Session{
		ID:           primitive.NewObjectID(),
		DeviceID:     deviceID,
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(24 * time.Hour),
		Status:       SessionStatusActive,
		Detections:   make([]SessionDetection, 0),
	}
}

// AddDetection appends a detection to the session history
func (s *Session) AddDetection(d Detection, level float64) {
	now := time.Now()
	s.Detections = append(s.Detections, SessionDetection{
		Timestamp: now,
		Detection: d,
		Level:     level,
	})
	s.LastDetectionAt = &now
	s.UpdateLastActive()
}

// UpdateLastActive updates the last active timestamp and extends expiration
func (s *Session) UpdateLastActive() {
	s.LastActiveAt = time.Now()
	s.ExpiresAt = s.LastActiveAt.Add(24 * time.Hour)
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt) || s.Status != SessionStatusActive
}

// ShouldCreateNewSession reports whether a fresh session should be started
// instead of continuing this one. A gap of more than 30 minutes since the
// last detection starts a new session.
func (s *Session) ShouldCreateNewSession() bool {
	if s.LastDetectionAt == nil {
		return false
	}
	return time.Since(*s.LastDetectionAt) > 30*time.Minute
}

// Terminate marks the session as terminated
func (s *Session) Terminate() {
	s.Status = SessionStatusTerminated
	s.UpdateLastActive()
}

// Expire marks the session as expired
func (s *Session) Expire() {
	s.Status = SessionStatusExpired
}

// Validate validates the session data
func (s *Session) Validate() error {
	if s.DeviceID == "" {
		return errors.New("device_id is required")
	}

	if s.Status != SessionStatusActive && s.Status != SessionStatusExpired && s.Status != SessionStatusTerminated {
		return errors.New("invalid session status")
	}

	return nil
}
