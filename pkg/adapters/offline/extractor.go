package offline

import (
	"context"
	"regexp"
	"sort"

	"github.com/aretw0/parley/pkg/domain"
)

// Pattern recognises one entity type. When the expression has a capture
// group, the first group is the entity span.
type Pattern struct {
	Type string
	Expr *regexp.Regexp
}

const accountWord = `(checking|savings|credit\s+card|\d{10})`

// DefaultPatterns recognises the slot vocabulary.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Type: domain.SlotAccountType, Expr: regexp.MustCompile(`(?i)\b(checking|savings|credit\s+card)\b`)},
		{Type: domain.SlotSourceAccount, Expr: regexp.MustCompile(`(?i)\bfrom\s+(?:my\s+)?` + accountWord)},
		{Type: domain.SlotTargetAccount, Expr: regexp.MustCompile(`(?i)\bto\s+(?:my\s+)?` + accountWord)},
		{Type: domain.SlotDateRangeName, Expr: regexp.MustCompile(`(?i)\blast\s+(?:week|month)\b|\d{4}-\d{2}-\d{2}\s*(?:to|through|-)\s*\d{4}-\d{2}-\d{2}`)},
		{Type: domain.SlotAmountName, Expr: regexp.MustCompile(`[$€£¥]\s?\d+(?:\.\d+)?(?:\s?[A-Z]{3})?|\b\d+(?:\.\d+)?\s?(?:USD|EUR|GBP|JPY)\b`)},
		{Type: domain.SlotAmountName, Expr: regexp.MustCompile(`(?i)\b(?:transfer|send|move)\s+(\d+(?:\.\d{1,2})?)\b`)},
		{Type: domain.SlotCardLast4, Expr: regexp.MustCompile(`(?i)\b(?:ending\s+in|last\s+(?:4|four))\s+(\d{4})\b`)},
	}
}

// PatternExtractor finds entities with regular expressions.
type PatternExtractor struct {
	patterns []Pattern
}

// NewPatternExtractor creates an extractor. No patterns means DefaultPatterns.
func NewPatternExtractor(patterns ...Pattern) *PatternExtractor {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &PatternExtractor{patterns: patterns}
}

// Extract implements ports.EntityExtractor. Entities are ordered by offset.
func (x *PatternExtractor) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []domain.Entity
	for _, p := range x.patterns {
		for _, loc := range p.Expr.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				start, end = loc[2], loc[3]
			}
			out = append(out, domain.Entity{Type: p.Type, Text: text[start:end], Start: start, End: end})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}
