// Package policy decides the next dialogue action.
//
// Policy is the action-selection state machine: an ordered guard chain where
// the first matching guard wins. Gate runs before it on every turn and screens
// sensitive requests, and it grades low-confidence turns into clarify or escalate.
package policy

import (
	"github.com/aretw0/parley/pkg/domain"
)

// DefaultClarifyThreshold is the confidence below which the policy asks for clarification.
const DefaultClarifyThreshold = 0.5

// DefaultHighRisk lists the intents that need explicit user confirmation.
func DefaultHighRisk() []string {
	return []string{
		domain.IntentTransferMoney,
		domain.IntentTerminateAccount,
		domain.IntentChangePIN,
		domain.IntentDisputedTransaction,
	}
}

// Requirements reports the required slots an intent still lacks, in elicitation order.
// *slots.Filler satisfies it.
type Requirements interface {
	Missing(intent string, filled domain.Slots) []string
}

// Policy selects actions. It holds no mutable state and is safe for concurrent use.
type Policy struct {
	required         Requirements
	clarifyThreshold float64
	highRisk         map[string]struct{}
}

// Option configures a Policy.
type Option func(*Policy)

// WithClarifyThreshold overrides the clarify guard threshold.
func WithClarifyThreshold(t float64) Option {
	return func(p *Policy) { p.clarifyThreshold = t }
}

// WithHighRisk replaces the high-risk intent set.
func WithHighRisk(intents ...string) Option {
	return func(p *Policy) {
		p.highRisk = make(map[string]struct{}, len(intents))
		for _, i := range intents {
			p.highRisk[i] = struct{}{}
		}
	}
}

// New creates a Policy over the given slot requirements.
func New(required Requirements, opts ...Option) *Policy {
	p := &Policy{required: required, clarifyThreshold: DefaultClarifyThreshold}
	WithHighRisk(DefaultHighRisk()...)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ClarifyThreshold returns the configured clarify guard threshold.
func (p *Policy) ClarifyThreshold() float64 {
	return p.clarifyThreshold
}

// IsHighRisk reports whether intent needs explicit confirmation.
func (p *Policy) IsHighRisk(intent string) bool {
	_, ok := p.highRisk[intent]
	return ok
}

// SelectAction evaluates the guard chain:
//
//  1. confidence below the clarify threshold: clarify
//  2. a required slot is missing: fill the first one
//  3. high-risk intent: verify
//  4. otherwise: query the backend
//
// The result depends only on the arguments. state is accepted so callers pass
// the full dialogue position, but no guard currently branches on it.
func (p *Policy) SelectAction(intent string, confidence float64, filled domain.Slots, state domain.State) domain.Decision {
	if confidence < p.clarifyThreshold {
		return domain.Clarify(intent, confidence)
	}

	if missing := p.required.Missing(intent, filled); len(missing) > 0 {
		return domain.FillSlot(intent, missing[0])
	}

	if p.IsHighRisk(intent) {
		return domain.Verify(intent)
	}

	return domain.QueryBackend(intent, domain.ReasonReady)
}
