package policy

import (
	"regexp"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// DefaultEscalateThreshold is the confidence below which a clarify turn escalates instead.
const DefaultEscalateThreshold = 0.3

// DefaultSensitiveKeywords are the disclosures the assistant refuses to collect.
func DefaultSensitiveKeywords() []string {
	return []string{"password", "security code", "pin", "ssn"}
}

// Gate is the fallback and safety screen.
type Gate struct {
	sensitive         *regexp.Regexp
	escalateThreshold float64
	maxFallbacks      int
}

// GateOption configures a Gate.
type GateOption func(*gateConfig)

type gateConfig struct {
	keywords          []string
	escalateThreshold float64
	maxFallbacks      int
}

// WithKeywords replaces the sensitive keyword list.
func WithKeywords(kw ...string) GateOption {
	return func(c *gateConfig) { c.keywords = kw }
}

// WithEscalateThreshold overrides the escalate tier threshold.
func WithEscalateThreshold(t float64) GateOption {
	return func(c *gateConfig) { c.escalateThreshold = t }
}

// WithMaxFallbacks escalates once a session has had n consecutive clarify or
// escalate turns. Zero disables the limit.
func WithMaxFallbacks(n int) GateOption {
	return func(c *gateConfig) { c.maxFallbacks = n }
}

// NewGate creates a Gate.
//
// Keywords match case-insensitively anywhere in the text, so "PIN1234" and
// "mypassword" trigger the screen. Words of a multi-word keyword may be
// separated by any run of whitespace.
func NewGate(opts ...GateOption) *Gate {
	cfg := gateConfig{
		keywords:          DefaultSensitiveKeywords(),
		escalateThreshold: DefaultEscalateThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	g := &Gate{escalateThreshold: cfg.escalateThreshold, maxFallbacks: cfg.maxFallbacks}
	if len(cfg.keywords) > 0 {
		alts := make([]string, len(cfg.keywords))
		for i, kw := range cfg.keywords {
			words := strings.Fields(regexp.QuoteMeta(kw))
			alts[i] = strings.Join(words, `\s+`)
		}
		g.sensitive = regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
	}
	return g
}

// Screen checks text for sensitive-request keywords. On a match it returns a
// refuse_and_escalate decision and true; the caller must short-circuit the turn.
func (g *Gate) Screen(text string) (domain.Decision, bool) {
	if g.sensitive == nil || !g.sensitive.MatchString(text) {
		return domain.Decision{}, false
	}
	return domain.RefuseAndEscalate(domain.ReasonSensitiveRequest), true
}

// LowConfidence grades a turn that the policy sent to clarify. fallbacks is the
// session's fallback count before this turn.
func (g *Gate) LowConfidence(intent string, confidence float64, fallbacks int) domain.Decision {
	switch {
	case confidence < g.escalateThreshold:
		return domain.Escalate(intent, domain.ReasonLowConfidence)
	case g.maxFallbacks > 0 && fallbacks >= g.maxFallbacks:
		return domain.Escalate(intent, domain.ReasonRepeatedFallback)
	default:
		return domain.Clarify(intent, confidence)
	}
}

var affirmatives = map[string]struct{}{
	"yes":       {},
	"y":         {},
	"yeah":      {},
	"yep":       {},
	"confirm":   {},
	"confirmed": {},
	"ok":        {},
	"okay":      {},
	"proceed":   {},
}

// IsAffirmative reports whether a reply confirms a pending action, e.g.
// "Yes", "confirm." or "ok, proceed".
func IsAffirmative(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	for _, w := range words {
		if _, ok := affirmatives[w]; !ok {
			return false
		}
	}
	return true
}
