package repositories

import "context"

// AudioConfig describes the encoding of audio handed to the transcriber.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// Transcriber abstracts speech recognition for the human-voice features
// (owners dictating questions instead of typing them).
type Transcriber interface {
	// TranscribeAudio converts audio data to text
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
}
