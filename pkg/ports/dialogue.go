package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Dialogue is the engine surface used by transports (HTTP, MCP, CLI).
type Dialogue interface {
	// ProcessMessage runs one full turn for the session, creating it if needed.
	ProcessMessage(ctx context.Context, sessionID, message string) (domain.TurnResult, error)

	// GetSession returns a copy of the session or domain.ErrSessionNotFound.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// DeleteSession removes the session entirely.
	DeleteSession(ctx context.Context, sessionID string) error

	// ListSessions summarises every live session.
	ListSessions(ctx context.Context) ([]domain.Summary, error)
}

// TurnObserver receives the committed before/after pair of every turn.
// Transports use it to stream session changes.
type TurnObserver interface {
	OnCommit(ctx context.Context, before, after *domain.Session)
}
