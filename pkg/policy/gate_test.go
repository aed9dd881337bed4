package policy_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/policy"
	"github.com/stretchr/testify/assert"
)

func TestGate_Screen(t *testing.T) {
	g := policy.NewGate()

	for _, text := range []string{
		"my password is 1234",
		"What's my PIN?",
		"here is my SSN",
		"the Security  Code is 999",
		"I forgot my passwords",
		"my password123 is hunter2",
		"mypin is 4321",
		"PIN1234",
		"ssn123456789",
	} {
		d, hit := g.Screen(text)
		assert.True(t, hit, text)
		assert.Equal(t, domain.ActionRefuseAndEscalate, d.Kind, text)
		assert.Equal(t, domain.StateFallback, d.NextState, text)
		assert.Equal(t, domain.ReasonSensitiveRequest, d.Reason, text)
	}

	for _, text := range []string{
		"what is my balance",
		"I went to the store yesterday",
		"how much did I spend on groceries",
		"",
	} {
		_, hit := g.Screen(text)
		assert.False(t, hit, text)
	}
}

func TestGate_ScreenCustomKeywords(t *testing.T) {
	g := policy.NewGate(policy.WithKeywords("mother's maiden name"))

	_, hit := g.Screen("my Mother's maiden name is Smith")
	assert.True(t, hit)

	_, hit = g.Screen("my password is hunter2")
	assert.False(t, hit)

	_, hit = policy.NewGate(policy.WithKeywords()).Screen("password")
	assert.False(t, hit)
}

func TestGate_LowConfidence(t *testing.T) {
	g := policy.NewGate()

	d := g.LowConfidence(domain.IntentGetBalance, 0.29, 0)
	assert.Equal(t, domain.Escalate(domain.IntentGetBalance, domain.ReasonLowConfidence), d)

	d = g.LowConfidence(domain.IntentGetBalance, 0.30, 0)
	assert.Equal(t, domain.Clarify(domain.IntentGetBalance, 0.30), d)

	d = g.LowConfidence(domain.IntentGetBalance, 0.45, 10)
	assert.Equal(t, domain.ActionClarify, d.Kind, "no fallback limit by default")
}

func TestGate_MaxFallbacks(t *testing.T) {
	g := policy.NewGate(policy.WithMaxFallbacks(2))

	assert.Equal(t, domain.ActionClarify, g.LowConfidence("x", 0.4, 0).Kind)
	assert.Equal(t, domain.ActionClarify, g.LowConfidence("x", 0.4, 1).Kind)

	d := g.LowConfidence("x", 0.4, 2)
	assert.Equal(t, domain.ActionEscalate, d.Kind)
	assert.Equal(t, domain.ReasonRepeatedFallback, d.Reason)
}

func TestIsAffirmative(t *testing.T) {
	for _, text := range []string{"yes", "Yes!", "  CONFIRM ", "ok, proceed", "y", "confirmed."} {
		assert.True(t, policy.IsAffirmative(text), text)
	}
	for _, text := range []string{"", "no", "yes but change the amount", "not ok", "maybe", "..."} {
		assert.False(t, policy.IsAffirmative(text), text)
	}
}
