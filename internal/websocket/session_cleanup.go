package websocket

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

// SessionCleanupService deletes expired listening sessions in the background.
type SessionCleanupService struct {
	sessionRepo repositories.SessionRepository
	logger      *zap.Logger
	stopChan    chan struct{}
}

// NewSessionCleanupService creates a new session cleanup service
func NewSessionCleanupService(sessionRepo repositories.SessionRepository, logger *zap.Logger) *SessionCleanupService {
	return &SessionCleanupService{
		sessionRepo: sessionRepo,
		logger:      logger,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started")
}

// Stop gracefully stops the cleanup service
func (s *SessionCleanupService) Stop() {
	close(s.stopChan)
	s.logger.Info("Session cleanup service stopped")
}

// cleanupLoop runs the cleanup process periodically
func (s *SessionCleanupService) cleanupLoop() {
	// Run cleanup every 30 minutes
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	// Run initial cleanup after 1 minute
	initialTimer := time.NewTimer(1 * time.Minute)
	defer initialTimer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-initialTimer.C:
			s.runCleanup()
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// runCleanup deletes sessions whose expiry has passed.
func (s *SessionCleanupService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to delete expired sessions", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("Session cleanup completed", zap.Int64("deleted", deleted))
	}
}
