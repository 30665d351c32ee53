package repositories

import (
	"context"
	"errors"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

// Error categories for classifier failures. Handlers map these to
// user-facing responses with a concrete remedial action instead of leaking
// raw transport errors.
var (
	// ErrUnsupportedFormat means the uploaded clip could not be decoded.
	// Remedy: re-encode as .m4a, .wav or .mp3.
	ErrUnsupportedFormat = errors.New("audio format not supported")

	// ErrPayloadTooLarge means the clip exceeded the collaborator's limit.
	// Remedy: keep uploads under 20MB.
	ErrPayloadTooLarge = errors.New("audio payload too large")

	// ErrModelNotReady means the inference model is still loading.
	// Remedy: retry shortly.
	ErrModelNotReady = errors.New("classifier model not ready")

	// ErrClassifierUnavailable covers server-side classifier failures.
	// Remedy: retry later.
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)

// AudioClip is a finite recorded clip handed to the classifier.
type AudioClip struct {
	// Filename hints the container format to the collaborator
	// (e.g. "recording.webm", "upload.m4a").
	Filename string
	// ContentType is the MIME type, empty if unknown.
	ContentType string
	Data        []byte
}

// Classification is the raw outcome of one classifier call. Emotion carries
// the classifier's own label vocabulary; callers normalize it before handing
// it to the translation tables.
type Classification struct {
	Species     entities.Species
	Emotion     string
	Confidence  float64
	AllEmotions map[string]float64
}

// EmotionClassifier abstracts the external audio-emotion inference service.
type EmotionClassifier interface {
	// Classify submits a clip and returns the detected species and emotion.
	Classify(ctx context.Context, clip AudioClip) (Classification, error)
}
