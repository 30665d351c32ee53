package repositories

import (
	"context"

	"github.com/hanyuwei/petbabel/server/domain/entities"
)

// SessionRepository defines data access methods for listening sessions
type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	GetByID(ctx context.Context, id string) (*entities.Session, error)
	// GetLastByDeviceID returns the most recent session for a device, or
	// (nil, nil) when the device has none yet.
	GetLastByDeviceID(ctx context.Context, deviceID string) (*entities.Session, error)
	Update(ctx context.Context, session *entities.Session) error
	// DeleteExpired removes sessions whose expiry has passed and returns
	// the number deleted.
	DeleteExpired(ctx context.Context) (int64, error)
}
