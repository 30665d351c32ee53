package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/adapters/asr"
	"github.com/hanyuwei/petbabel/server/adapters/assets"
	"github.com/hanyuwei/petbabel/server/adapters/classifier"
	"github.com/hanyuwei/petbabel/server/adapters/expert"
	"github.com/hanyuwei/petbabel/server/adapters/memory"
	mongodb "github.com/hanyuwei/petbabel/server/adapters/mongo"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
	"github.com/hanyuwei/petbabel/server/internal/api"
	"github.com/hanyuwei/petbabel/server/internal/websocket"
	"github.com/hanyuwei/petbabel/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize adapters
	emotionClassifier := classifier.NewHTTPClassifier(classifier.NewConfigFromEnv(), logger)

	assetStore, err := assets.NewDirStoreFromEnv(logger)
	if err != nil {
		logger.Fatal("Failed to open audio asset store", zap.Error(err))
	}

	deviceRepo, err := memory.NewDeviceRepositoryFromEnv()
	if err != nil {
		logger.Fatal("Failed to load device registry", zap.Error(err))
	}

	var sessionRepo repositories.SessionRepository
	mongoClient, err := mongodb.NewClient(mongodb.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Warn("MongoDB unavailable, session history disabled", zap.Error(err))
	} else {
		sessionRepo = mongodb.NewSessionRepository(mongoClient.Database)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoClient.Close(ctx)
		}()
	}

	var expertModel repositories.ExpertModel
	if em, err := expert.NewGeminiExpert(expert.NewGeminiConfigFromEnv(), logger); err != nil {
		logger.Warn("Expert model unavailable", zap.Error(err))
	} else {
		expertModel = em
	}

	transcriber := asr.NewGoogleTranscriber(logger)

	// Initialize usecase services
	translator := usecase.NewTranslationService(emotionClassifier, logger)

	// Initialize WebSocket hub for remote auto-detect
	hub := websocket.NewHub(translator, sessionRepo, logger)
	go hub.Run()

	if sessionRepo != nil {
		cleanup := websocket.NewSessionCleanupService(sessionRepo, logger)
		cleanup.Start()
		defer cleanup.Stop()
	}

	// Initialize API routes
	api.InitRoutes(e, api.Dependencies{
		Hub:         hub,
		DeviceRepo:  deviceRepo,
		Translator:  translator,
		AssetStore:  assetStore,
		Expert:      expertModel,
		Transcriber: transcriber,
	}, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
