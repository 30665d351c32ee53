package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

type SessionRepository struct {
	collection *mongo.Collection
}

// NewSessionRepository creates a new MongoDB listening-session repository
func NewSessionRepository(db *mongo.Database) repositories.SessionRepository {
	return &SessionRepository{
		collection: db.Collection("listening_sessions"),
	}
}

// Create implements repositories.SessionRepository
func (r *SessionRepository) Create(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if err := session.Validate(); err != nil {
		return err
	}

	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.LastActiveAt.IsZero() {
		session.LastActiveAt = now
	}
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByID implements repositories.SessionRepository
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID format: %w", err)
	}

	var session entities.Session
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	return &session, nil
}

// GetLastByDeviceID implements repositories.SessionRepository
func (r *SessionRepository) GetLastByDeviceID(ctx context.Context, deviceID string) (*entities.Session, error) {
	if deviceID == "" {
		return nil, errors.New("device ID cannot be empty")
	}

	filter := bson.M{"device_id": deviceID}
	opts := options.FindOne().SetSort(bson.M{"last_active_at": -1})

	var session entities.Session
	err := r.collection.FindOne(ctx, filter, opts).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // no session yet, not an error
		}
		return nil, fmt.Errorf("failed to get last session for device %s: %w", deviceID, err)
	}

	return &session, nil
}

// Update implements repositories.SessionRepository
func (r *SessionRepository) Update(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.ID.IsZero() {
		return errors.New("session ID cannot be empty")
	}

	update := bson.M{
		"$set": bson.M{
			"device_id":         session.DeviceID,
			"last_active_at":    session.LastActiveAt,
			"last_detection_at": session.LastDetectionAt,
			"expires_at":        session.ExpiresAt,
			"status":            session.Status,
			"detections":        session.Detections,
			"metadata":          session.Metadata,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("session with ID %s not found", session.ID.Hex())
	}

	return nil
}

// DeleteExpired implements repositories.SessionRepository
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.DeletedCount, nil
}
