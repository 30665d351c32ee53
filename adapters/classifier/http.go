// Package classifier talks to the external audio-emotion inference service.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 15 * time.Second
)

// Config holds configuration for the HTTP classifier client.
// Optional fields with defaults:
// - BaseURL: the inference server's base URL (default: "http://localhost:8000")
// - Timeout: per-request timeout (default: 15s)
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// NewConfigFromEnv builds a Config from environment variables.
func NewConfigFromEnv() Config {
	cfg := Config{
		BaseURL: os.Getenv("CLASSIFIER_BASE_URL"),
	}
	if timeoutStr := os.Getenv("CLASSIFIER_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil && timeout > 0 {
			cfg.Timeout = timeout
		}
	}
	return cfg
}

// HTTPClassifier implements EmotionClassifier against the inference server's
// multipart predict endpoint.
type HTTPClassifier struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ repositories.EmotionClassifier = (*HTTPClassifier)(nil)

// NewHTTPClassifier creates a classifier client, applying defaults for any
// unset config fields.
func NewHTTPClassifier(config Config, logger *zap.Logger) *HTTPClassifier {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
		logger.Info("Using default classifier base URL", zap.String("baseURL", baseURL))
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &HTTPClassifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// predictResponse mirrors the inference server's reply. The emotion comes
// back under either "emotion" or "label" depending on the model path.
type predictResponse struct {
	Success     bool               `json:"success"`
	Emotion     string             `json:"emotion"`
	Label       string             `json:"label"`
	Animal      string             `json:"animal"`
	Confidence  float64            `json:"confidence"`
	AllEmotions map[string]float64 `json:"all_emotions"`
	Error       string             `json:"error"`
}

// Classify uploads the clip and returns the parsed classification. Non-2xx
// statuses are translated into the repository error categories so callers
// can suggest a concrete remedy.
func (h *HTTPClassifier) Classify(ctx context.Context, clip repositories.AudioClip) (repositories.Classification, error) {
	if len(clip.Data) == 0 {
		return repositories.Classification{}, fmt.Errorf("empty audio clip")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filename := clip.Filename
	if filename == "" {
		filename = "recording.webm"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return repositories.Classification{}, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(clip.Data); err != nil {
		return repositories.Classification{}, fmt.Errorf("failed to write clip data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return repositories.Classification{}, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := h.baseURL + "/predict"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return repositories.Classification{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	h.logger.Debug("Submitting clip to classifier",
		zap.String("url", url),
		zap.Int("size", len(clip.Data)))

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return repositories.Classification{}, fmt.Errorf("%w: %v", repositories.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if err := categorizeStatus(resp.StatusCode); err != nil {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		h.logger.Warn("Classifier returned error status",
			zap.Int("statusCode", resp.StatusCode),
			zap.ByteString("response", errorBody))
		return repositories.Classification{}, err
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return repositories.Classification{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}

	emotion := parsed.Emotion
	if emotion == "" {
		emotion = parsed.Label
	}
	if !parsed.Success && emotion == "" {
		if parsed.Error != "" {
			return repositories.Classification{}, fmt.Errorf("%w: %s", repositories.ErrClassifierUnavailable, parsed.Error)
		}
		return repositories.Classification{}, fmt.Errorf("%w: unparsable result", repositories.ErrClassifierUnavailable)
	}

	return repositories.Classification{
		Species:     entities.Species(parsed.Animal),
		Emotion:     emotion,
		Confidence:  parsed.Confidence,
		AllEmotions: parsed.AllEmotions,
	}, nil
}

// categorizeStatus maps the collaborator's status codes onto the error
// taxonomy: 422 unsupported format, 413 too large, 503 model not ready,
// anything else non-2xx a server failure.
func categorizeStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnprocessableEntity, status == http.StatusBadRequest:
		return repositories.ErrUnsupportedFormat
	case status == http.StatusRequestEntityTooLarge:
		return repositories.ErrPayloadTooLarge
	case status == http.StatusServiceUnavailable:
		return repositories.ErrModelNotReady
	default:
		return fmt.Errorf("%w: status %d", repositories.ErrClassifierUnavailable, status)
	}
}
