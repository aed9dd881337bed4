package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

type entry struct {
	session *domain.Session
	touched time.Time
}

// Store implements ports.SessionStore in process memory.
// Safe for concurrent use.
//
// Entries idle for longer than the TTL are invisible to Load and are removed
// by Sweep. When a capacity is set, saving a new session evicts the least
// recently saved one.
type Store struct {
	data map[string]entry
	mu   sync.RWMutex

	ttl time.Duration
	max int
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL expires sessions that have not been saved for ttl. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithMaxSessions caps the number of stored sessions. Zero means unbounded.
func WithMaxSessions(n int) Option {
	return func(s *Store) { s.max = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) expired(e entry, now time.Time) bool {
	return s.ttl > 0 && now.Sub(e.touched) > s.ttl
}

// Save persists a deep copy of the session.
func (s *Store) Save(ctx context.Context, sess *domain.Session) error {
	copied := sess.Snapshot()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sess.ID]; !exists && s.max > 0 {
		for len(s.data) >= s.max {
			s.evictOldest()
		}
	}
	s.data[sess.ID] = entry{session: copied, touched: now}
	return nil
}

// evictOldest removes the least recently saved session. Caller holds s.mu.
func (s *Store) evictOldest() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, e := range s.data {
		if !found || e.touched.Before(oldestAt) {
			oldestID, oldestAt, found = id, e.touched, true
		}
	}
	if found {
		delete(s.data, oldestID)
	}
}

// Load retrieves a copy of the session so callers can't mutate stored state.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.RLock()
	e, ok := s.data[sessionID]
	s.mu.RUnlock()

	if !ok || s.expired(e, s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return e.session.Snapshot(), nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns live sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id, e := range s.data {
		if !s.expired(e, now) {
			sessions = append(sessions, id)
		}
	}
	return sessions, nil
}

// Sweep removes expired sessions.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.data {
		if s.expired(e, now) {
			delete(s.data, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
