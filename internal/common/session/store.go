// Package session keeps the server side state of open application forms.
package session

import (
	"context"
	"errors"
	"time"

	"applicant-portal/internal/common/config"
	"applicant-portal/internal/common/database"
	"applicant-portal/internal/models"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrLocked   = errors.New("session submit lock is held")
)

// Unlock releases a submit lock. Releasing an expired or foreign lock is a no-op.
type Unlock func(ctx context.Context) error

// Store persists form sessions keyed by session id.
type Store interface {
	Get(ctx context.Context, id string) (*models.FormSession, error)
	Put(ctx context.Context, s *models.FormSession) error
	Delete(ctx context.Context, id string) error
	// AcquireSubmitLock returns ErrLocked while another submission of the session holds the lock.
	AcquireSubmitLock(ctx context.Context, id string) (Unlock, error)
}

// NewStore builds the store selected by cfg.Store. redis may be nil for the memory store.
func NewStore(cfg config.SessionConfig, redis *database.RedisClient) (Store, error) {
	ttl := config.GetDuration(cfg.TTL)
	lockTTL := config.GetDuration(cfg.SubmitLockTTL)

	switch cfg.Store {
	case "redis":
		if redis == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		return NewRedisStore(redis, cfg.KeyPrefix, ttl, lockTTL), nil
	case "memory", "":
		return NewMemoryStore(ttl, lockTTL), nil
	default:
		return nil, errors.New("unknown session store: " + cfg.Store)
	}
}

func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
