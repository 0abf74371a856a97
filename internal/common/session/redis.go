package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"applicant-portal/internal/common/database"
	"applicant-portal/internal/models"

	"github.com/google/uuid"
)

// RedisStore keeps sessions as JSON strings with a sliding TTL.
type RedisStore struct {
	client  *database.RedisClient
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client *database.RedisClient, prefix string, ttl, lockTTL time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, lockTTL: lockTTL}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

func (r *RedisStore) lockKey(id string) string {
	return r.prefix + id + ":submit-lock"
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.FormSession, error) {
	val, err := r.client.Get(ctx, r.key(id))
	if errors.Is(err, database.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var s models.FormSession
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *models.FormSession) error {
	s.UpdateActivity()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	if err := r.client.Set(ctx, r.key(s.ID), string(data), r.ttl); err != nil {
		return fmt.Errorf("put session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *RedisStore) AcquireSubmitLock(ctx context.Context, id string) (Unlock, error) {
	token := uuid.NewString()
	key := r.lockKey(id)

	ok, err := r.client.SetNX(ctx, key, token, r.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire submit lock %s: %w", id, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func(ctx context.Context) error {
		if _, err := r.client.DeleteIfEquals(ctx, key, token); err != nil {
			return fmt.Errorf("release submit lock %s: %w", id, err)
		}
		return nil
	}, nil
}
