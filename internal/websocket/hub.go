// Package websocket runs the remote auto-detect protocol: a connected device
// streams microphone levels, the server's capture loop decides when to record,
// and the device sends each requested clip as a binary frame.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/capture"
	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
	"github.com/hanyuwei/petbabel/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio clips
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	translator  *usecase.TranslationService
	sessionRepo repositories.SessionRepository

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(
	translator *usecase.TranslationService,
	sessionRepo repositories.SessionRepository,
	logger *zap.Logger,
) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		translator:  translator,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.deviceID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("deviceID", client.deviceID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.deviceID]; ok {
				delete(h.clients, client.deviceID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("deviceID", client.deviceID))
		}
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub. It also
// acts as the capture loop's audio input: the device reports levels and
// records clips on request, so the loop sees it as a local microphone.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Device ID for this client
	deviceID string

	// Logger
	logger *zap.Logger

	// Auto-detect state
	capture *capture.Session
	session *entities.Session

	// Latest level reported by the device and the pending clip request.
	lastLevel   float64
	leveled     bool
	pendingClip chan []byte

	mutex sync.Mutex
}

var _ capture.Device = (*Client)(nil)

// HandleWebSocketWithAuth handles websocket requests with pre-authenticated device ID
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, deviceID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		deviceID: deviceID,
		logger:   logger,
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.stopDetection()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processClip(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON queues a JSON message without blocking the caller.
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message",
			zap.String("deviceID", c.deviceID))
	}
}

// processMessage processes incoming control messages from the device
func (c *Client) processMessage(message []byte) {
	var base BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		c.logger.Error("Failed to parse message", zap.Error(err))
		c.sendJSON(CreateErrorMessage(MessageTypeError, "invalid_json", "message is not valid JSON"))
		return
	}

	switch base.Type {
	case MessageTypeDetectStart:
		var msg DetectStartMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendJSON(CreateErrorMessage(MessageTypeError, "invalid_message", err.Error()))
			return
		}
		c.handleDetectStart(msg)
	case MessageTypeDetectStop:
		c.handleDetectStop()
	case MessageTypeLevel:
		var msg LevelMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		c.handleLevel(msg.Value)
	case MessageTypePing:
		c.sendJSON(BaseMessage{Type: MessageTypePong, Timestamp: time.Now().Format(time.RFC3339)})
	default:
		c.logger.Warn("Unknown message type", zap.String("type", string(base.Type)))
		c.sendJSON(CreateErrorMessage(MessageTypeError, "unknown_type",
			fmt.Sprintf("unsupported message type: %s", base.Type)))
	}
}

// handleDetectStart builds a capture session over this connection and starts
// it. A second detect_start while one is running is acknowledged without
// side effects, mirroring the loop's idempotent start.
func (c *Client) handleDetectStart(msg DetectStartMessage) {
	species := entities.Species(msg.Species)
	if !species.Valid() {
		species = entities.SpeciesCat
	}

	cfg := capture.DefaultConfig()
	if msg.Threshold > 0 {
		cfg.Threshold = msg.Threshold
	}
	if msg.CooldownMs > 0 {
		cfg.Cooldown = time.Duration(msg.CooldownMs) * time.Millisecond
	}
	if msg.SamplePeriodMs > 0 {
		cfg.SamplePeriod = time.Duration(msg.SamplePeriodMs) * time.Millisecond
	}
	if msg.ClipDurationMs > 0 {
		cfg.ClipDuration = time.Duration(msg.ClipDurationMs) * time.Millisecond
	}

	c.mutex.Lock()
	if c.capture == nil {
		sess := capture.NewSession(cfg, c, c.hub.translator.SubmitFunc(species), c.logger)
		sess.OnDetection(func(d entities.Detection) {
			c.handleDetection(d, sess.LastLevel())
		})
		sess.OnError(func(err error) {
			c.sendJSON(CreateErrorMessage(MessageTypeDetectError, "capture_failed", err.Error()))
		})
		c.capture = sess
	}
	sess := c.capture
	c.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sess.Start(ctx); err != nil {
		c.mutex.Lock()
		c.capture = nil
		c.mutex.Unlock()
		c.logger.Error("Failed to start detection",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage(MessageTypeDetectError, "start_failed", err.Error()))
		return
	}

	persistSession := c.ensureSession(ctx, cfg)

	ack := DetectStartedMessage{
		BaseMessage: newBase(MessageTypeDetectStarted),
		Species:     string(species),
		Threshold:   cfg.Threshold,
		CooldownMs:  int(cfg.Cooldown / time.Millisecond),
	}
	if persistSession != nil {
		ack.SessionID = persistSession.ID.Hex()
	}
	c.sendJSON(ack)

	c.logger.Info("Auto-detect started",
		zap.String("deviceID", c.deviceID),
		zap.String("species", string(species)))
}

// ensureSession finds a continuable listening session for this device or
// creates a fresh one. Persistence failures degrade to an unrecorded run.
func (c *Client) ensureSession(ctx context.Context, cfg capture.Config) *entities.Session {
	if c.hub.sessionRepo == nil {
		return nil
	}

	session, err := c.hub.sessionRepo.GetLastByDeviceID(ctx, c.deviceID)
	if err != nil {
		c.logger.Error("Failed to load last session",
			zap.String("deviceID", c.deviceID),
			zap.Error(err))
	}

	if session == nil || session.IsExpired() || session.ShouldCreateNewSession() {
		session = entities.NewSession(c.deviceID)
		session.Metadata = entities.SessionMetadata{
			Threshold: cfg.Threshold,
			Cooldown:  cfg.Cooldown,
		}
		if err := c.hub.sessionRepo.Create(ctx, session); err != nil {
			c.logger.Error("Failed to create listening session",
				zap.String("deviceID", c.deviceID),
				zap.Error(err))
			session = nil
		}
	}

	c.mutex.Lock()
	c.session = session
	c.mutex.Unlock()
	return session
}

func (c *Client) handleDetectStop() {
	c.stopDetection()
	c.sendJSON(BaseMessage{Type: MessageTypeDetectStopped, Timestamp: time.Now().Format(time.RFC3339)})
}

// stopDetection tears down the capture session if one is running. Safe to
// call repeatedly and from the disconnect path.
func (c *Client) stopDetection() {
	c.mutex.Lock()
	sess := c.capture
	c.capture = nil
	c.session = nil
	c.mutex.Unlock()

	if sess != nil {
		sess.Stop()
	}
}

func (c *Client) handleLevel(value float64) {
	c.mutex.Lock()
	c.lastLevel = value
	c.leveled = true
	c.mutex.Unlock()
}

// processClip delivers a binary audio frame to the waiting capture request.
func (c *Client) processClip(data []byte) {
	c.mutex.Lock()
	pending := c.pendingClip
	c.pendingClip = nil
	c.mutex.Unlock()

	if pending == nil {
		c.logger.Warn("Received audio clip with no capture request pending",
			zap.String("deviceID", c.deviceID),
			zap.Int("size", len(data)))
		return
	}
	pending <- data
}

// handleDetection reports one detection to the device and appends it to the
// persisted session history.
func (c *Client) handleDetection(d entities.Detection, level float64) {
	c.mutex.Lock()
	session := c.session
	c.mutex.Unlock()

	event := DetectionEvent{
		BaseMessage: newBase(MessageTypeDetection),
		Level:       level,
		Detection:   d,
	}
	if session != nil {
		event.SessionID = session.ID.Hex()
	}
	c.sendJSON(event)

	if session == nil || c.hub.sessionRepo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session.AddDetection(d, level)
	if err := c.hub.sessionRepo.Update(ctx, session); err != nil {
		c.logger.Error("Failed to persist detection",
			zap.String("deviceID", c.deviceID),
			zap.String("sessionID", session.ID.Hex()),
			zap.Error(err))
	}
}

// Open implements capture.Device. The connection is the device and is already
// open by the time detection starts.
func (c *Client) Open(ctx context.Context) error {
	return ctx.Err()
}

// Level implements capture.Device with the latest level the device reported.
func (c *Client) Level() (float64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.leveled {
		return 0, nil
	}
	return c.lastLevel, nil
}

// Record implements capture.Device: it asks the device for one clip and waits
// for the matching binary frame.
func (c *Client) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	clipCh := make(chan []byte, 1)

	c.mutex.Lock()
	if c.pendingClip != nil {
		c.mutex.Unlock()
		return nil, fmt.Errorf("a capture request is already pending")
	}
	c.pendingClip = clipCh
	c.mutex.Unlock()

	c.sendJSON(CaptureRequestMessage{
		BaseMessage: newBase(MessageTypeCaptureRequest),
		DurationMs:  int(d / time.Millisecond),
	})

	select {
	case clip := <-clipCh:
		if len(clip) == 0 {
			return nil, fmt.Errorf("device sent an empty clip")
		}
		return clip, nil
	case <-ctx.Done():
		c.mutex.Lock()
		if c.pendingClip == clipCh {
			c.pendingClip = nil
		}
		c.mutex.Unlock()
		return nil, fmt.Errorf("waiting for device clip: %w", ctx.Err())
	}
}

// Close implements capture.Device. The websocket connection outlives the
// capture session, so there is nothing to release here.
func (c *Client) Close() error {
	c.mutex.Lock()
	c.pendingClip = nil
	c.leveled = false
	c.lastLevel = 0
	c.mutex.Unlock()
	return nil
}
