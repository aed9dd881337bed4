package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aretw0/parley/pkg/domain"
)

// GetSession returns a copy of the session or domain.ErrSessionNotFound.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// DeleteSession removes the session entirely.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	if err := e.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "session deleted", "session_id", sessionID)
	return nil
}

// ListSessions summarises every live session, most recently active first.
// Sessions that disappear while listing are skipped.
func (e *Engine) ListSessions(ctx context.Context) ([]domain.Summary, error) {
	ids, err := e.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]domain.Summary, 0, len(ids))
	for _, id := range ids {
		s, err := e.sessions.Load(ctx, id)
		if errors.Is(err, domain.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session %q: %w", id, err)
		}
		out = append(out, s.Summary())
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Recent returns the last k turns of the session as "role: message" lines.
func (e *Engine) Recent(ctx context.Context, sessionID string, k int) (string, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return s.Recent(k), nil
}
