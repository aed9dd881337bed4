package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnDecision(ctx, &domain.DecisionEvent{Intent: "get_balance", Confidence: 0.9, Decision: domain.QueryBackend("get_balance", domain.ReasonReady)})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Intent: "get_balance", Confidence: 0.4, Decision: domain.Clarify("get_balance", 0.4)})
	hooks.OnDecision(ctx, &domain.DecisionEvent{Intent: "x", Confidence: 0.1, Decision: domain.Escalate("x", domain.ReasonLowConfidence)})
	hooks.OnCollaboratorFailure(ctx, &domain.FailureEvent{Collaborator: domain.CollaboratorBackend, Err: errors.New("down")})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{State: domain.StateCompletion, Action: domain.ActionQueryBackend, Latency: 20 * time.Millisecond})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{State: domain.StateFallback, Action: domain.ActionClarify, Latency: time.Millisecond})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Intents.WithLabelValues("get_balance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actions.WithLabelValues("clarify")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues("backend")))

	count, err := testutil.GatherAndCount(reg, "parley_turn_duration_seconds", "parley_intent_confidence")
	require.NoError(t, err)
	assert.Equal(t, 3, count, "two action series plus one confidence histogram")
}

func TestMetrics_NilRegistry(t *testing.T) {
	m := observability.NewMetrics(nil)
	assert.NotPanics(t, func() {
		m.Hooks().OnDecision(context.Background(), &domain.DecisionEvent{Decision: domain.Verify("x")})
	})
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger).Merge(observability.NewMetrics(nil).Hooks())
	ctx := context.Background()

	base := domain.EventBase{SessionID: "s1"}
	hooks.OnTurnStart(ctx, &domain.TurnEvent{EventBase: base})
	hooks.OnDecision(ctx, &domain.DecisionEvent{EventBase: base, Intent: "get_balance", Confidence: 0.92, Decision: domain.FillSlot("get_balance", "account_type")})
	hooks.OnCollaboratorFailure(ctx, &domain.FailureEvent{EventBase: base, Collaborator: "classifier", Err: errors.New("timeout")})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{EventBase: base, State: domain.StateSlotFilling, Action: domain.ActionFillSlot})

	out := buf.String()
	assert.Contains(t, out, "msg=turn_start session_id=s1")
	assert.Contains(t, out, "action=fill_slot")
	assert.Contains(t, out, "collaborator=classifier err=timeout")
	assert.Contains(t, out, "state=slot_filling")
}
