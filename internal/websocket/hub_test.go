package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

func newTestClient() *Client {
	return &Client{
		send:     make(chan WriteData, 16),
		deviceID: "test-device",
		logger:   zap.NewNop(),
	}
}

func nextJSON(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case msg := <-c.send:
		var parsed map[string]interface{}
		if err := json.Unmarshal(msg.Payload, &parsed); err != nil {
			t.Fatalf("sent message is not JSON: %v", err)
		}
		return parsed
	case <-time.After(time.Second):
		t.Fatal("no message was sent")
		return nil
	}
}

func TestLevelStartsAtZero(t *testing.T) {
	c := newTestClient()

	level, err := c.Level()
	if err != nil {
		t.Fatalf("Level() error = %v", err)
	}
	if level != 0 {
		t.Errorf("Level() = %v before any report, want 0", level)
	}
}

func TestLevelTracksDeviceReports(t *testing.T) {
	c := newTestClient()

	c.handleLevel(42.5)
	if level, _ := c.Level(); level != 42.5 {
		t.Errorf("Level() = %v, want 42.5", level)
	}

	c.handleLevel(7)
	if level, _ := c.Level(); level != 7 {
		t.Errorf("Level() = %v, want 7", level)
	}
}

func TestRecordRequestsAndReceivesClip(t *testing.T) {
	c := newTestClient()
	clip := []byte("audio-bytes")

	done := make(chan struct{})
	var got []byte
	var recErr error
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		got, recErr = c.Record(ctx, time.Second)
	}()

	req := nextJSON(t, c)
	if req["type"] != string(MessageTypeCaptureRequest) {
		t.Fatalf("sent message type = %v, want capture_request", req["type"])
	}
	if req["duration_ms"] != float64(1000) {
		t.Errorf("duration_ms = %v, want 1000", req["duration_ms"])
	}

	c.processClip(clip)
	<-done

	if recErr != nil {
		t.Fatalf("Record() error = %v", recErr)
	}
	if string(got) != string(clip) {
		t.Errorf("Record() = %q, want %q", got, clip)
	}
}

func TestRecordTimesOutWithoutClip(t *testing.T) {
	c := newTestClient()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Record(ctx, time.Second); err == nil {
		t.Fatal("Record() should fail when the device never sends a clip")
	}

	c.mutex.Lock()
	pending := c.pendingClip
	c.mutex.Unlock()
	if pending != nil {
		t.Error("pending clip request should be cleared after timeout")
	}
}

func TestRecordRejectsEmptyClip(t *testing.T) {
	c := newTestClient()

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err := c.Record(ctx, time.Second)
		done <- err
	}()

	nextJSON(t, c) // consume the capture request
	c.processClip(nil)

	if err := <-done; err == nil {
		t.Error("Record() should reject an empty clip")
	}
}

func TestRecordRefusesConcurrentRequests(t *testing.T) {
	c := newTestClient()

	started := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		close(started)
		c.Record(ctx, time.Second)
	}()
	<-started
	nextJSON(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := c.Record(ctx, time.Second); err == nil {
		t.Error("second Record() while one is pending should fail")
	}

	c.processClip([]byte("clip"))
}

func TestUnmatchedClipIsDropped(t *testing.T) {
	c := newTestClient()

	// Must not panic or send anything.
	c.processClip([]byte("stray"))

	select {
	case msg := <-c.send:
		t.Errorf("unexpected message sent: %s", msg.Payload)
	default:
	}
}

func TestCloseResetsDeviceState(t *testing.T) {
	c := newTestClient()
	c.handleLevel(99)
	c.pendingClip = make(chan []byte, 1)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if level, _ := c.Level(); level != 0 {
		t.Errorf("Level() = %v after Close, want 0", level)
	}

	// Close is safe to repeat.
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
}

func TestProcessMessageRejectsInvalidJSON(t *testing.T) {
	c := newTestClient()

	c.processMessage([]byte("{not json"))

	resp := nextJSON(t, c)
	if resp["type"] != string(MessageTypeError) {
		t.Errorf("response type = %v, want error", resp["type"])
	}
	if resp["error_code"] != "invalid_json" {
		t.Errorf("error_code = %v, want invalid_json", resp["error_code"])
	}
}

func TestProcessMessageRejectsUnknownType(t *testing.T) {
	c := newTestClient()

	c.processMessage([]byte(`{"type":"teleport"}`))

	resp := nextJSON(t, c)
	if resp["type"] != string(MessageTypeError) {
		t.Errorf("response type = %v, want error", resp["type"])
	}
}

func TestPingPong(t *testing.T) {
	c := newTestClient()

	c.processMessage([]byte(`{"type":"ping"}`))

	resp := nextJSON(t, c)
	if resp["type"] != string(MessageTypePong) {
		t.Errorf("response type = %v, want pong", resp["type"])
	}
}

func TestDetectionEventCarriesTranslation(t *testing.T) {
	c := newTestClient()
	c.hub = &Hub{logger: zap.NewNop()}

	detection := entities.Detection{
		Species:    entities.SpeciesCat,
		Emotion:    "警告",
		Confidence: 0.92,
		Translation: entities.TranslationResult{
			TargetSpecies:  entities.SpeciesDog,
			TargetEmotion:  "警告",
			AudioAsset:     "狗_警告.m4a",
			HasTranslation: true,
		},
	}

	c.handleDetection(detection, 55)

	resp := nextJSON(t, c)
	if resp["type"] != string(MessageTypeDetection) {
		t.Fatalf("response type = %v, want detection", resp["type"])
	}
	if resp["level"] != float64(55) {
		t.Errorf("level = %v, want 55", resp["level"])
	}
	det, ok := resp["detection"].(map[string]interface{})
	if !ok {
		t.Fatal("detection payload missing")
	}
	tr, ok := det["translation"].(map[string]interface{})
	if !ok || tr["has_translation"] != true {
		t.Errorf("translation not carried: %v", det["translation"])
	}
}
