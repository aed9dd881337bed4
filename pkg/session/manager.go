package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// MaxIDLength bounds session identifiers.
const MaxIDLength = 128

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// Turns on the same session are serialised; different sessions never block
// each other. Unused locks are garbage collected by reference counting.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	window  int
	idleTTL time.Duration
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHistoryWindow sets the history bound of newly created sessions.
func WithHistoryWindow(n int) Option {
	return func(m *Manager) {
		m.window = n
	}
}

// WithIdleTTL expires sessions idle for longer than ttl when Sweep runs.
// It is only consulted for stores that do not implement ports.Sweeper.
func WithIdleTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.idleTTL = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		window:  domain.DefaultHistoryWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ValidateID rejects empty, oversized or control-character session IDs.
func ValidateID(sessionID string) error {
	if sessionID == "" || len(sessionID) > MaxIDLength {
		return fmt.Errorf("%w: length must be 1..%d", domain.ErrInvalidSessionID, MaxIDLength)
	}
	for _, r := range sessionID {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return fmt.Errorf("%w: contains whitespace or control characters", domain.ErrInvalidSessionID)
		}
	}
	return nil
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sess, err = m.store.Load(ctx, sessionID)
		return err
	})
	return sess, err
}

// Update runs one atomic read-modify-write on a session.
//
// The session is loaded, or created in the greeting state when it does not
// exist yet, and fn receives a working copy. The copy is saved only if fn
// returns nil and ctx is still live; otherwise nothing is committed, not even
// the creation of a new session. before is nil for a newly created session.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(ctx context.Context, working *domain.Session) error) (before, after *domain.Session, err error) {
	if err := ValidateID(sessionID); err != nil {
		return nil, nil, err
	}

	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			before = current
		case errors.Is(err, domain.ErrSessionNotFound):
			current = domain.NewSession(sessionID, m.now())
			current.Window = m.window
		default:
			return fmt.Errorf("failed to load session: %w", err)
		}

		working := current.Snapshot()
		if err := fn(ctx, working); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("turn abandoned before commit: %w", err)
		}

		if err := m.store.Save(ctx, working); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		after = working.Snapshot()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, sess *domain.Session) error {
	if err := ValidateID(sess.ID); err != nil {
		return err
	}
	return m.WithLock(ctx, sess.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, sess)
	})
}

// Delete removes the session from the store.
// Returns domain.ErrSessionNotFound if there is nothing to delete.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if _, err := m.store.Load(ctx, sessionID); err != nil {
			return err
		}
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// Sweep expires idle sessions. Stores implementing ports.Sweeper, directly or
// beneath middlewares, expire their own entries; otherwise sessions idle
// longer than the idle TTL are deleted.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	if sw, ok := ports.FindSweeper(m.store); ok {
		return sw.Sweep(ctx)
	}
	if m.idleTTL <= 0 {
		return 0, nil
	}

	ids, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	removed := 0
	for _, id := range ids {
		err := m.WithLock(ctx, id, func(ctx context.Context) error {
			sess, err := m.store.Load(ctx, id)
			if err != nil {
				return err
			}
			if m.now().Sub(sess.UpdatedAt) <= m.idleTTL {
				return nil
			}
			if err := m.store.Delete(ctx, id); err != nil {
				return err
			}
			removed++
			return nil
		})
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return removed, err
		}
	}
	return removed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				m.logger.Warn("session sweep failed", "err", err)
				continue
			}
			if n > 0 {
				m.logger.Debug("expired idle sessions", "count", n)
			}
		}
	}
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Release even if the turn's context was cancelled.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
