package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"applicant-portal/internal/models"

	"github.com/google/uuid"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

type memoryLock struct {
	token   string
	expires time.Time
}

// MemoryStore keeps sessions in process. Entries are copied through JSON so callers never share state.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	locks    map[string]memoryLock
	ttl      time.Duration
	lockTTL  time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl, lockTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]memoryLock),
		ttl:      ttl,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.FormSession, error) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	if ok && expired(entry.expires, m.now()) {
		delete(m.sessions, id)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrNotFound
	}
	var s models.FormSession
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Put(_ context.Context, s *models.FormSession) error {
	s.UpdateActivity()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memoryEntry{data: data, expires: expiresAt(m.now(), m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) AcquireSubmitLock(_ context.Context, id string) (Unlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if held, ok := m.locks[id]; ok && !expired(held.expires, now) {
		return nil, ErrLocked
	}
	token := uuid.NewString()
	m.locks[id] = memoryLock{token: token, expires: expiresAt(now, m.lockTTL)}

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if held, ok := m.locks[id]; ok && held.token == token {
			delete(m.locks, id)
		}
		return nil
	}, nil
}

func expired(expires, now time.Time) bool {
	return !expires.IsZero() && !now.Before(expires)
}
