package offline

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Rule maps keywords to an intent. Keywords are matched as whole words, case-insensitively.
type Rule struct {
	Intent   string   `yaml:"intent"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules covers the banking intents.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: domain.IntentLostOrStolenCard, Keywords: []string{"lost", "stolen", "can't find", "missing card"}},
		{Intent: domain.IntentTransactionHistory, Keywords: []string{"transactions", "transaction", "history", "spend", "spent", "statement"}},
		{Intent: domain.IntentTransferMoney, Keywords: []string{"transfer", "send", "move money", "wire"}},
		{Intent: domain.IntentGetBalance, Keywords: []string{"balance", "how much", "funds"}},
		{Intent: domain.IntentDisputedTransaction, Keywords: []string{"dispute", "unauthorized", "fraud"}},
		{Intent: domain.IntentTerminateAccount, Keywords: []string{"close my account", "terminate", "cancel my account"}},
	}
}

// Confidence levels by number of distinct keyword hits.
const (
	oneHit       = 0.75
	twoHits      = 0.85
	manyHits     = 0.95
	noHit        = 0.4
	carriedScore = 0.6
)

var slotCue = regexp.MustCompile(`(?i)\b(?:checking|savings|credit|last (?:week|month)|\d{4}|\d{4}-\d{2}-\d{2})\b|[$€£¥]\s?\d`)

type compiledRule struct {
	intent   string
	patterns []*regexp.Regexp
}

// KeywordClassifier scores intents by keyword hits. Ties go to the earlier rule.
type KeywordClassifier struct {
	rules []compiledRule

	carry bool
	mu    sync.Mutex
	last  string
}

// ClassifierOption configures a KeywordClassifier.
type ClassifierOption func(*KeywordClassifier)

// WithRules replaces the default rules.
func WithRules(rules ...Rule) ClassifierOption {
	return func(c *KeywordClassifier) { c.rules = compileRules(rules) }
}

// WithCarryOver makes a message without intent keywords but with a slot
// value (an account type, a date, digits, an amount) inherit the last
// recognised intent. The classifier then holds state, so use one instance
// per conversation.
func WithCarryOver() ClassifierOption {
	return func(c *KeywordClassifier) { c.carry = true }
}

// NewKeywordClassifier creates a classifier over DefaultRules unless WithRules is given.
func NewKeywordClassifier(opts ...ClassifierOption) *KeywordClassifier {
	c := &KeywordClassifier{rules: compileRules(DefaultRules())}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func compileRules(rules []Rule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{intent: r.Intent}
		for _, kw := range r.Keywords {
			words := strings.Fields(regexp.QuoteMeta(kw))
			cr.patterns = append(cr.patterns, regexp.MustCompile(`(?i)\b`+strings.Join(words, `\s+`)+`\b`))
		}
		out = append(out, cr)
	}
	return out
}

// Predict implements ports.IntentClassifier.
func (c *KeywordClassifier) Predict(ctx context.Context, text string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	best, bestHits := "", 0
	for _, r := range c.rules {
		hits := 0
		for _, p := range r.patterns {
			if p.MatchString(text) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = r.intent, hits
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if bestHits == 0 {
		if c.carry && c.last != "" && slotCue.MatchString(text) {
			return c.last, carriedScore, nil
		}
		return domain.IntentGeneralInquiry, noHit, nil
	}

	c.last = best
	switch bestHits {
	case 1:
		return best, oneHit, nil
	case 2:
		return best, twoHits, nil
	default:
		return best, manyHits, nil
	}
}
