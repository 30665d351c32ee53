package api

import (
	"time"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

// DeviceAuthRequest represents the request payload for device authentication
type DeviceAuthRequest struct {
	SerialNumber string `json:"serial_number" validate:"required"`
	SecretKey    string `json:"secret_key" validate:"required"`
}

// DeviceAuthResponse represents the response payload for device authentication
type DeviceAuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	DeviceID  string    `json:"device_id"`
}

// LabelsResponse lists the emotions that can be detected and played back for
// one species.
type LabelsResponse struct {
	Species  string                  `json:"species"`
	Emotions []entities.EmotionLabel `json:"emotions"`
}

// TranslateRequest asks for the cross-species rendering of one emotion.
type TranslateRequest struct {
	Species string `json:"species" validate:"required"`
	Emotion string `json:"emotion" validate:"required"`
}

// TranslateResponse carries the resolved translation. HasTranslation false
// with a 200 status means the emotion simply has no counterpart.
type TranslateResponse struct {
	Species     string                     `json:"species"`
	Emotion     entities.EmotionLabel      `json:"emotion"`
	Translation entities.TranslationResult `json:"translation"`
	AudioURL    string                     `json:"audio_url,omitempty"`
}

// AnalyzeResponse wraps a detection for the REST analyze endpoint.
type AnalyzeResponse struct {
	Detection entities.Detection `json:"detection"`
	AudioURL  string             `json:"audio_url,omitempty"`
}

// ExpertRequest carries a free-text pet behavior question.
type ExpertRequest struct {
	Question    string  `json:"question" validate:"required"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ExpertResponse carries the expert model's answer.
type ExpertResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model"`
}

// TranscribeResponse carries the recognized owner speech.
type TranscribeResponse struct {
	Transcript string `json:"transcript"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
