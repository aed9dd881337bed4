package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart           EventType = "turn_start"
	EventDecision            EventType = "decision"
	EventCollaboratorFailure EventType = "collaborator_failure"
	EventTurnEnd             EventType = "turn_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// DecisionEvent reports the classification and the selected action of a turn.
type DecisionEvent struct {
	EventBase
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Decision   Decision `json:"decision"`
}

// FailureEvent reports a collaborator failure that was degraded locally.
type FailureEvent struct {
	EventBase
	Collaborator string `json:"collaborator"`
	Err          error  `json:"-"`
}

// TurnEvent marks the start or the committed end of a turn.
type TurnEvent struct {
	EventBase
	State   State         `json:"state,omitempty"`
	Action  ActionKind    `json:"action,omitempty"`
	Latency time.Duration `json:"latency,omitempty"`
}

// LifecycleHooks defines callbacks for orchestrator observability.
// Every field is optional.
type LifecycleHooks struct {
	OnTurnStart           func(context.Context, *TurnEvent)
	OnDecision            func(context.Context, *DecisionEvent)
	OnCollaboratorFailure func(context.Context, *FailureEvent)
	OnTurnEnd             func(context.Context, *TurnEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurnStart:           chain(h.OnTurnStart, other.OnTurnStart),
		OnDecision:            chain(h.OnDecision, other.OnDecision),
		OnCollaboratorFailure: chain(h.OnCollaboratorFailure, other.OnCollaboratorFailure),
		OnTurnEnd:             chain(h.OnTurnEnd, other.OnTurnEnd),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
