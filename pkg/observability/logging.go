package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured record per event.
// Events carry no message text, so nothing user-supplied reaches the log.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnStart: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn_start", "session_id", e.SessionID)
		},
		OnDecision: func(ctx context.Context, e *domain.DecisionEvent) {
			logger.InfoContext(ctx, "decision",
				"session_id", e.SessionID,
				"intent", e.Intent,
				"confidence", e.Confidence,
				"action", e.Decision.Kind,
				"next_state", e.Decision.NextState,
				"reason", e.Decision.Reason,
			)
		},
		OnCollaboratorFailure: func(ctx context.Context, e *domain.FailureEvent) {
			logger.WarnContext(ctx, "collaborator_failure",
				"session_id", e.SessionID,
				"collaborator", e.Collaborator,
				"err", e.Err,
			)
		},
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			logger.InfoContext(ctx, "turn_end",
				"session_id", e.SessionID,
				"state", e.State,
				"action", e.Action,
				"latency", e.Latency,
			)
		},
	}
}
