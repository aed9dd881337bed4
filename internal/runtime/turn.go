package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/policy"
	"github.com/aretw0/parley/pkg/respond"
)

// turn accumulates the outcome of one message before it is committed.
type turn struct {
	sessionID  string
	intent     string
	confidence float64
	decision   domain.Decision
	response   string
	failures   []*domain.FailureEvent
}

func (t *turn) fail(collaborator string, err error, at time.Time) {
	t.failures = append(t.failures, &domain.FailureEvent{
		EventBase:    domain.EventBase{Timestamp: at, Type: domain.EventCollaboratorFailure, SessionID: t.sessionID},
		Collaborator: collaborator,
		Err:          err,
	})
}

// ProcessMessage runs one full turn for the session, creating it on first use.
//
// Collaborator failures are degraded and never returned. The only errors are
// a missing classifier, an invalid session ID, store failures and caller
// cancellation; in every such case the session is left untouched.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, message string) (domain.TurnResult, error) {
	if e.classifier == nil {
		return domain.TurnResult{}, domain.ErrClassifierNotConfigured
	}

	start := e.now()
	e.emitTurnStart(ctx, sessionID, start)

	var t *turn
	before, after, err := e.sessions.Update(ctx, sessionID, func(ctx context.Context, s *domain.Session) error {
		var err error
		t, err = e.run(ctx, s, message)
		return err
	})
	if err != nil {
		e.logger.WarnContext(ctx, "turn aborted", "session_id", sessionID, "err", err)
		return domain.TurnResult{}, err
	}

	for _, f := range t.failures {
		e.emitFailure(ctx, f)
	}
	e.emitDecision(ctx, t, after.UpdatedAt)
	for _, o := range e.observers {
		o.OnCommit(ctx, before, after)
	}
	e.emitTurnEnd(ctx, after, t.decision.Kind, e.now().Sub(start))

	return domain.TurnResult{
		SessionID:  after.ID,
		Response:   t.response,
		Intent:     t.intent,
		Confidence: t.confidence,
		State:      after.State,
		Slots:      e.scrubSlots(after.Slots),
		Action:     t.decision.Kind,
	}, nil
}

// scrubSlots renders slot values for callers. Account numbers and other
// recognised PII are masked; the stored session keeps the raw values.
func (e *Engine) scrubSlots(filled domain.Slots) map[string]string {
	out := filled.Strings()
	for name, v := range out {
		out[name] = e.redactor.Scrub(v)
	}
	return out
}

// run applies the turn to the working copy s. It returns an error only when
// the caller's context ends, in which case nothing is committed.
func (e *Engine) run(ctx context.Context, s *domain.Session, message string) (*turn, error) {
	t := &turn{sessionID: s.ID}

	// History and logs only ever see the redacted message. Collaborators get
	// the original so entity offsets stay valid.
	inbound := e.redactor.Scrub(message)
	e.logger.DebugContext(ctx, "turn received", "session_id", s.ID, "state", s.State, "message", inbound)
	s.AddTurn(domain.RoleUser, inbound, e.now())

	cls := e.classify(ctx, message)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cls.Degraded() {
		e.logger.WarnContext(ctx, "classifier failed, degrading", "session_id", s.ID, "err", cls.Err)
		t.fail(domain.CollaboratorClassifier, cls.Err, e.now())
	}
	t.intent, t.confidence = cls.Intent, cls.Confidence

	decision, err := e.decide(ctx, s, t, message)
	if err != nil {
		return nil, err
	}
	t.decision = decision

	switch {
	case decision.IsFallback():
		s.FallbackCount++
	case decision.Kind != domain.ActionRefuseAndEscalate:
		s.FallbackCount = 0
	}

	s.State = decision.NextState
	s.PendingIntent = ""
	if decision.Kind == domain.ActionVerify {
		s.PendingIntent = decision.Intent
	}
	s.LastIntent = t.intent

	if decision.Kind == domain.ActionQueryBackend {
		if err := e.fulfil(ctx, s, t); err != nil {
			return nil, err
		}
	} else {
		t.response = e.generator.Prompt(decision)
	}

	t.response = e.redactor.Scrub(t.response)
	s.AddTurn(domain.RoleBot, t.response, e.now())

	e.logger.DebugContext(ctx, "turn decided",
		"session_id", s.ID,
		"intent", t.intent,
		"confidence", t.confidence,
		"action", decision.Kind,
		"state", s.State,
	)
	return t, nil
}

// decide runs the safety gate, the verification follow-through, slot filling
// and the policy, in that order.
func (e *Engine) decide(ctx context.Context, s *domain.Session, t *turn, message string) (domain.Decision, error) {
	if d, hit := e.gate.Screen(message); hit {
		return d, nil
	}

	if s.State == domain.StateVerification && s.PendingIntent != "" && policy.IsAffirmative(message) {
		t.intent, t.confidence = s.PendingIntent, 1.0
		return domain.QueryBackend(s.PendingIntent, domain.ReasonConfirmedByUser), nil
	}

	ext := e.extract(ctx, message)
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}
	if ext.Err != nil {
		e.logger.WarnContext(ctx, "extractor failed, skipping slot enrichment", "session_id", s.ID, "err", ext.Err)
		t.fail(domain.CollaboratorExtractor, ext.Err, e.now())
	} else if len(ext.Entities) > 0 {
		s.UpdateSlots(e.filler.Fill(ext.Entities, t.intent))
	}

	d := e.policy.SelectAction(t.intent, t.confidence, s.Slots, s.State)
	if d.Kind == domain.ActionClarify {
		d = e.gate.LowConfidence(t.intent, t.confidence, s.FallbackCount)
	}
	return d, nil
}

// fulfil queries the backend and renders its result. A backend failure
// keeps the query_backend state and answers with an apology.
func (e *Engine) fulfil(ctx context.Context, s *domain.Session, t *turn) error {
	if e.backend == nil {
		t.response = e.generator.Prompt(t.decision)
		return nil
	}

	res := e.query(ctx, t.decision.Intent, s.Slots)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("backend call abandoned: %w", err)
	}
	if !res.OK() {
		if errors.Is(res.Err, context.DeadlineExceeded) {
			e.logger.WarnContext(ctx, "backend timed out", "session_id", s.ID, "intent", t.decision.Intent)
		} else {
			e.logger.WarnContext(ctx, "backend failed", "session_id", s.ID, "intent", t.decision.Intent, "err", res.Err)
		}
		t.fail(domain.CollaboratorBackend, res.Err, e.now())
		t.response = respond.MsgBackendFailure
		return nil
	}

	data := make(map[string]any, len(s.Slots)+len(res.Data))
	for k, v := range s.Slots {
		data[k] = v
	}
	for k, v := range res.Data {
		data[k] = v
	}
	t.response = e.generator.Render(t.decision.Intent, data)
	s.State = domain.StateCompletion
	return nil
}
