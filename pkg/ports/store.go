package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// SessionStore persists dialogue sessions between turns.
type SessionStore interface {
	// Save persists the session under session.ID, replacing any previous value.
	Save(ctx context.Context, session *domain.Session) error

	// Load retrieves the session for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all live sessions.
	List(ctx context.Context) ([]string, error)
}

// Sweeper is implemented by stores that expire idle sessions on demand.
type Sweeper interface {
	// Sweep removes expired sessions and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// Wrapper is implemented by store middlewares so callers can reach the inner store.
type Wrapper interface {
	Unwrap() SessionStore
}

// FindSweeper walks the Unwrap chain of store and returns the first Sweeper.
func FindSweeper(store SessionStore) (Sweeper, bool) {
	for store != nil {
		if sw, ok := store.(Sweeper); ok {
			return sw, true
		}
		w, ok := store.(Wrapper)
		if !ok {
			return nil, false
		}
		store = w.Unwrap()
	}
	return nil, false
}
