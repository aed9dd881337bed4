// Package respond renders dialogue actions and backend results into user-facing text.
//
// Templates bind {name} placeholders to values by literal key lookup. Nothing
// in a template is evaluated.
package respond

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Fixed messages.
const (
	MsgProcessed      = "I've processed your request."
	MsgFormatFailure  = "I processed your request but couldn't format the response."
	MsgBackendFailure = "I encountered an issue processing your request."
	MsgProcessing     = "Processing your request..."
	MsgVerify         = "Please confirm this action by saying 'yes' or 'confirm'."
	MsgEscalate       = "I'm having trouble. Let me connect you with an agent."
	MsgRefusal        = "I'll never ask for passwords or SSN."
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is the response text for one intent.
type Template struct {
	Intent   string `json:"intent" yaml:"intent"`
	Text     string `json:"text" yaml:"text"`
	FollowUp string `json:"followup,omitempty" yaml:"followup,omitempty"`
}

// Placeholders lists the field names the template needs, in order of first use.
func (t Template) Placeholders() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(t.Text, -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// DefaultTemplates returns the built-in banking templates.
func DefaultTemplates() []Template {
	balance := "Your {account_type} balance is ${balance}."
	balanceFollowUp := "Would you like to see transactions?"
	return []Template{
		{Intent: domain.IntentGetBalance, Text: balance, FollowUp: balanceFollowUp},
		{Intent: domain.IntentBalanceInquiry, Text: balance, FollowUp: balanceFollowUp},
		{
			Intent:   domain.IntentTransactionHistory,
			Text:     "Here are your transactions from {date_range}:\n{transactions}",
			FollowUp: "Need anything else?",
		},
		{Intent: domain.IntentTransferMoney, Text: "Transfer complete. {amount} sent to {target_account}."},
		{Intent: domain.IntentLostOrStolenCard, Text: "Card {card_last4} reported lost. New card in 3-5 business days."},
	}
}

// Generator renders responses. It is immutable and safe for concurrent use.
type Generator struct {
	templates map[string]Template
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplates adds or replaces templates by intent.
func WithTemplates(ts ...Template) Option {
	return func(g *Generator) {
		for _, t := range ts {
			g.templates[t.Intent] = t
		}
	}
}

// WithoutDefaults starts from an empty template set.
func WithoutDefaults() Option {
	return func(g *Generator) { g.templates = make(map[string]Template) }
}

// New creates a Generator seeded with DefaultTemplates.
func New(opts ...Option) *Generator {
	g := &Generator{templates: make(map[string]Template)}
	WithTemplates(DefaultTemplates()...)(g)
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Template returns the template registered for intent.
func (g *Generator) Template(intent string) (Template, bool) {
	t, ok := g.templates[intent]
	return t, ok
}

// Intents lists the intents with a registered template, sorted.
func (g *Generator) Intents() []string {
	out := make([]string, 0, len(g.templates))
	for k := range g.templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render fills the intent's template from data and appends its follow-up line.
// A missing template yields MsgProcessed; an unsatisfied placeholder yields
// MsgFormatFailure.
func (g *Generator) Render(intent string, data map[string]any) string {
	t, ok := g.templates[intent]
	if !ok {
		return MsgProcessed
	}

	missing := false
	out := placeholderRe.ReplaceAllStringFunc(t.Text, func(m string) string {
		v, ok := data[m[1:len(m)-1]]
		if !ok || v == nil {
			missing = true
			return m
		}
		return FormatValue(v)
	})
	if missing {
		return MsgFormatFailure
	}

	if t.FollowUp != "" {
		out += "\n" + t.FollowUp
	}
	return out
}

// Prompt returns the message for a non-backend decision.
func (g *Generator) Prompt(d domain.Decision) string {
	switch d.Kind {
	case domain.ActionFillSlot:
		return fmt.Sprintf("I need your %s. Can you provide it?", humanize(d.Slot))
	case domain.ActionVerify:
		return MsgVerify
	case domain.ActionClarify:
		return fmt.Sprintf("I think you mean %s. Is that correct?", humanize(d.Intent))
	case domain.ActionEscalate:
		return MsgEscalate
	case domain.ActionRefuseAndEscalate:
		return MsgRefusal
	case domain.ActionQueryBackend:
		return MsgProcessing
	default:
		return MsgProcessed
	}
}

func humanize(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// FormatValue renders a template value. Floats use two decimals, slot values
// use their display form and lists of records render one line per record.
func FormatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 2, 32)
	case domain.SlotValue:
		return x.String()
	case []map[string]any:
		lines := make([]string, len(x))
		for i, rec := range x {
			lines[i] = formatRecord(rec)
		}
		return strings.Join(lines, "\n")
	case []any:
		lines := make([]string, len(x))
		for i, item := range x {
			if rec, ok := item.(map[string]any); ok {
				lines[i] = formatRecord(rec)
			} else {
				lines[i] = "- " + FormatValue(item)
			}
		}
		return strings.Join(lines, "\n")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// formatRecord renders a transaction-like record as "- merchant: $amount (type)".
// Records without those fields fall back to sorted key=value pairs.
func formatRecord(rec map[string]any) string {
	merchant, hasMerchant := rec["merchant"]
	amount, hasAmount := rec["amount"]
	if hasMerchant && hasAmount {
		head := FormatValue(merchant)
		if date, ok := rec["date"]; ok {
			head = FormatValue(date) + " " + head
		}
		line := fmt.Sprintf("- %s: $%s", head, FormatValue(amount))
		if kind, ok := rec["type"]; ok {
			line += " (" + FormatValue(kind) + ")"
		}
		return line
	}

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + FormatValue(rec[k])
	}
	return "- " + strings.Join(parts, ", ")
}
