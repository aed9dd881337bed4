package runtime

import (
	"context"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

func (e *Engine) emitTurnStart(ctx context.Context, sessionID string, at time.Time) {
	if e.hooks.OnTurnStart == nil {
		return
	}
	e.hooks.OnTurnStart(ctx, &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: at, Type: domain.EventTurnStart, SessionID: sessionID},
	})
}

func (e *Engine) emitDecision(ctx context.Context, t *turn, at time.Time) {
	if e.hooks.OnDecision == nil {
		return
	}
	e.hooks.OnDecision(ctx, &domain.DecisionEvent{
		EventBase:  domain.EventBase{Timestamp: at, Type: domain.EventDecision, SessionID: t.sessionID},
		Intent:     t.intent,
		Confidence: t.confidence,
		Decision:   t.decision,
	})
}

func (e *Engine) emitFailure(ctx context.Context, f *domain.FailureEvent) {
	if e.hooks.OnCollaboratorFailure == nil {
		return
	}
	e.hooks.OnCollaboratorFailure(ctx, f)
}

func (e *Engine) emitTurnEnd(ctx context.Context, s *domain.Session, action domain.ActionKind, latency time.Duration) {
	if e.hooks.OnTurnEnd == nil {
		return
	}
	e.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: s.UpdatedAt, Type: domain.EventTurnEnd, SessionID: s.ID},
		State:     s.State,
		Action:    action,
		Latency:   latency,
	})
}
