package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

func testClip() repositories.AudioClip {
	return repositories.AudioClip{
		Filename: "recording.webm",
		Data:     []byte("fake-audio-bytes"),
	}
}

func TestClassifySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Expected multipart body: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("Expected file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"emotion": "warning",
			"animal": "cat",
			"confidence": 0.92,
			"all_emotions": {"warning": 0.92, "hungry": 0.05}
		}`))
	}))
	defer server.Close()

	c := NewHTTPClassifier(Config{BaseURL: server.URL}, zap.NewNop())
	result, err := c.Classify(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}

	if result.Emotion != "warning" {
		t.Errorf("Expected emotion warning, got %s", result.Emotion)
	}
	if result.Species != entities.SpeciesCat {
		t.Errorf("Expected species cat, got %s", result.Species)
	}
	if result.Confidence != 0.92 {
		t.Errorf("Expected confidence 0.92, got %f", result.Confidence)
	}
	if len(result.AllEmotions) != 2 {
		t.Errorf("Expected 2 entries in distribution, got %d", len(result.AllEmotions))
	}
}

func TestClassifyLabelFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"label": "hungry", "confidence": 0.7}`))
	}))
	defer server.Close()

	c := NewHTTPClassifier(Config{BaseURL: server.URL}, zap.NewNop())
	result, err := c.Classify(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.Emotion != "hungry" {
		t.Errorf("Expected label fallback to hungry, got %s", result.Emotion)
	}
}

func TestClassifyErrorTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnprocessableEntity, repositories.ErrUnsupportedFormat},
		{http.StatusBadRequest, repositories.ErrUnsupportedFormat},
		{http.StatusRequestEntityTooLarge, repositories.ErrPayloadTooLarge},
		{http.StatusServiceUnavailable, repositories.ErrModelNotReady},
		{http.StatusInternalServerError, repositories.ErrClassifierUnavailable},
		{http.StatusBadGateway, repositories.ErrClassifierUnavailable},
	}

	for _, tc := range cases {
		status := tc.status
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewHTTPClassifier(Config{BaseURL: server.URL}, zap.NewNop())
		_, err := c.Classify(context.Background(), testClip())
		if !errors.Is(err, tc.want) {
			t.Errorf("Status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		server.Close()
	}
}

func TestClassifyConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	c := NewHTTPClassifier(Config{BaseURL: server.URL}, zap.NewNop())
	_, err := c.Classify(context.Background(), testClip())
	if !errors.Is(err, repositories.ErrClassifierUnavailable) {
		t.Errorf("Expected ErrClassifierUnavailable, got %v", err)
	}
}

func TestClassifyEmptyClip(t *testing.T) {
	c := NewHTTPClassifier(Config{BaseURL: "http://localhost:1"}, zap.NewNop())
	if _, err := c.Classify(context.Background(), repositories.AudioClip{}); err == nil {
		t.Error("Expected error for empty clip")
	}
}

func TestClassifyUnparsableResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "no model output"}`))
	}))
	defer server.Close()

	c := NewHTTPClassifier(Config{BaseURL: server.URL}, zap.NewNop())
	_, err := c.Classify(context.Background(), testClip())
	if !errors.Is(err, repositories.ErrClassifierUnavailable) {
		t.Errorf("Expected ErrClassifierUnavailable, got %v", err)
	}
}
