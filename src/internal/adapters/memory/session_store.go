package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cinescope/cinescope/src/internal/domain"
)

type InMemorySessionStore struct {
	sessions map[string]domain.Session
	mu       sync.RWMutex
	now      func() time.Time
}

func NewSessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

func (s *InMemorySessionStore) Put(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	if ttl > 0 {
		stored.ExpiresAt = s.now().Add(ttl)
	}
	s.sessions[session.Token] = stored
	return nil
}

func (s *InMemorySessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if sess.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

func (s *InMemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}
