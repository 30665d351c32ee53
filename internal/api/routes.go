package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
	"github.com/hanyuwei/petbabel/server/internal/auth"
	"github.com/hanyuwei/petbabel/server/internal/websocket"
	"github.com/hanyuwei/petbabel/server/translation"
	"github.com/hanyuwei/petbabel/server/usecase"
)

// Dependencies bundles everything the HTTP handlers need.
type Dependencies struct {
	Hub         *websocket.Hub
	DeviceRepo  repositories.DeviceRepository
	Translator  *usecase.TranslationService
	AssetStore  repositories.AudioAssetStore
	Expert      repositories.ExpertModel
	Transcriber repositories.Transcriber
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "petbabel-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/device/auth", func(c echo.Context) error {
		return deviceAuth(c, deps.DeviceRepo, logger)
	})

	v1.GET("/labels", getLabels)

	v1.POST("/translate", translateEmotion)

	v1.POST("/analyze", func(c echo.Context) error {
		return analyzeClip(c, deps.Translator, logger)
	})

	v1.GET("/audio/:species/:filename", func(c echo.Context) error {
		return serveAudio(c, deps.AssetStore, logger)
	})

	v1.POST("/expert", func(c echo.Context) error {
		return askExpert(c, deps.Expert, logger)
	})

	v1.POST("/transcribe", func(c echo.Context) error {
		return transcribeAudio(c, deps.Transcriber, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(deps.Hub, c, logger)
	})
}

func deviceAuth(c echo.Context, deviceRepo repositories.DeviceRepository, logger *zap.Logger) error {
	var req DeviceAuthRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind device auth request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.SerialNumber == "" || req.SecretKey == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Serial number and secret key are required",
		})
	}

	device, err := deviceRepo.ValidateDevice(req.SerialNumber, req.SecretKey)
	if err != nil {
		logger.Warn("Device authentication failed",
			zap.String("serial_number", req.SerialNumber),
			zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid device credentials",
		})
	}

	token, err := auth.GenerateDeviceToken(device.ID)
	if err != nil {
		logger.Error("Failed to generate device token",
			zap.String("device_id", device.ID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	// Expiration matches the JWT claims.
	expiresAt := time.Now().Add(24 * time.Hour)

	logger.Info("Device authenticated successfully",
		zap.String("device_id", device.ID),
		zap.String("serial_number", device.SerialNumber))

	return c.JSON(http.StatusOK, DeviceAuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		DeviceID:  device.ID,
	})
}

// getLabels lists the emotions a species can express through the audio
// inventory. These are exactly the emotions that can be played back.
func getLabels(c echo.Context) error {
	species := entities.Species(c.QueryParam("species"))
	if species == "" {
		species = entities.SpeciesCat
	}

	emotions := translation.AvailableEmotions(species)
	if emotions == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_species",
			Message: "Species must be \"cat\" or \"dog\"",
		})
	}

	return c.JSON(http.StatusOK, LabelsResponse{
		Species:  string(species),
		Emotions: emotions,
	})
}

// translateEmotion resolves the cross-species rendering of one emotion.
// An emotion with no counterpart is a 200 with has_translation false.
func translateEmotion(c echo.Context) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	species := entities.Species(req.Species)
	if !species.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_species",
			Message: "Species must be \"cat\" or \"dog\"",
		})
	}
	if req.Emotion == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Emotion is required",
		})
	}

	emotion := translation.NormalizeLabel(req.Emotion)
	result := translation.Translate(species, emotion)

	resp := TranslateResponse{
		Species:     string(species),
		Emotion:     emotion,
		Translation: result,
	}
	if result.HasTranslation {
		resp.AudioURL = audioURL(result)
	}
	return c.JSON(http.StatusOK, resp)
}

// analyzeClip runs an uploaded clip through the classifier and attaches the
// resolved translation.
func analyzeClip(c echo.Context, translator *usecase.TranslationService, logger *zap.Logger) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_file",
			Message: "An audio file is required in the \"file\" form field",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		logger.Error("Failed to open uploaded clip", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Could not read the uploaded file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		logger.Error("Failed to read uploaded clip", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Could not read the uploaded file",
		})
	}

	fallback := entities.Species(c.FormValue("species"))

	clip := repositories.AudioClip{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}

	detection, err := translator.AnalyzeClip(c.Request().Context(), clip, fallback)
	if err != nil {
		return classifierError(c, err, logger)
	}

	resp := AnalyzeResponse{Detection: detection}
	if detection.Translation.HasTranslation {
		resp.AudioURL = audioURL(detection.Translation)
	}
	return c.JSON(http.StatusOK, resp)
}

// classifierError maps the classifier's failure modes onto HTTP statuses with
// messages that tell the caller what to change.
func classifierError(c echo.Context, err error, logger *zap.Logger) error {
	switch {
	case errors.Is(err, repositories.ErrUnsupportedFormat):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "unsupported_format",
			Message: "The audio format is not supported; re-encode the clip as WAV or WebM and retry",
		})
	case errors.Is(err, repositories.ErrPayloadTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "payload_too_large",
			Message: "The clip is too large; send a shorter recording",
		})
	case errors.Is(err, repositories.ErrModelNotReady):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "model_not_ready",
			Message: "The classifier model is still loading; retry in a few seconds",
		})
	default:
		logger.Error("Classification failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "classifier_unavailable",
			Message: "The classifier could not process the clip",
		})
	}
}

// serveAudio streams one pre-recorded vocalization clip.
func serveAudio(c echo.Context, store repositories.AudioAssetStore, logger *zap.Logger) error {
	species := entities.Species(c.Param("species"))
	filename, err := url.PathUnescape(c.Param("filename"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_filename",
			Message: "Filename is not valid",
		})
	}

	path, err := store.Resolve(species, entities.AudioAssetRef(filename))
	if err != nil {
		logger.Debug("Audio asset not found",
			zap.String("species", string(species)),
			zap.String("filename", filename))
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "asset_not_found",
			Message: "No such audio clip",
		})
	}

	return c.File(path)
}

func askExpert(c echo.Context, expert repositories.ExpertModel, logger *zap.Logger) error {
	if expert == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "expert_unavailable",
			Message: "The expert model is not configured",
		})
	}

	var req ExpertRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Question == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Question is required",
		})
	}

	answer, err := expert.Ask(c.Request().Context(), repositories.ExpertQuery{
		Question:    req.Question,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		logger.Error("Expert query failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "expert_failed",
			Message: "The expert model could not answer",
		})
	}

	return c.JSON(http.StatusOK, ExpertResponse{
		Answer: answer.Answer,
		Model:  answer.Model,
	})
}

func transcribeAudio(c echo.Context, transcriber repositories.Transcriber, logger *zap.Logger) error {
	if transcriber == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "transcriber_unavailable",
			Message: "Speech recognition is not configured",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_file",
			Message: "An audio file is required in the \"file\" form field",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Could not read the uploaded file",
		})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_file",
			Message: "Could not read the uploaded file",
		})
	}

	config := repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   c.FormValue("language"),
	}
	if v, err := strconv.Atoi(c.FormValue("sample_rate")); err == nil && v > 0 {
		config.SampleRate = v
	}
	if v := c.FormValue("encoding"); v != "" {
		config.Encoding = v
	}

	transcript, err := transcriber.TranscribeAudio(c.Request().Context(), data, config)
	if err != nil {
		logger.Error("Transcription failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "transcription_failed",
			Message: "Speech recognition could not process the audio",
		})
	}

	return c.JSON(http.StatusOK, TranscribeResponse{Transcript: transcript})
}

func audioURL(t entities.TranslationResult) string {
	return fmt.Sprintf("/api/v1/audio/%s/%s",
		t.TargetSpecies, url.PathEscape(string(t.AudioAsset)))
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	// Extract JWT token from Authorization header only
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" && len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		token = authHeader[7:]
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != "device" {
		logger.Warn("WebSocket connection rejected: invalid role",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only device tokens are allowed for WebSocket connections",
		})
	}

	deviceID := claims.DeviceID
	if deviceID == "" {
		logger.Error("WebSocket connection rejected: missing device ID in token")
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_token_claims",
			Message: "Device ID not found in token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("device_id", deviceID),
		zap.String("role", claims.Role))

	return websocket.HandleWebSocketWithAuth(hub, c, deviceID, logger)
}
