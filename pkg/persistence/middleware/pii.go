package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/redact"
)

type piiMiddleware struct {
	next     ports.SessionStore
	redactor *redact.Redactor
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that scrubs sessions before they are stored.
//
// Every history message passes through the redactor. Slot values whose names
// match one of slotPatterns are masked as well; a masked slot still counts as
// filled. A nil redactor uses redact.Default().
func NewPIIMiddleware(redactor *redact.Redactor, slotPatterns []string) Middleware {
	if redactor == nil {
		redactor = redact.Default()
	}
	patterns := make([]*regexp.Regexp, len(slotPatterns))
	for i, p := range slotPatterns {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, redactor: redactor, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sess *domain.Session) error {
	// Work on a copy so the caller's in-memory session is untouched.
	cloned := sess.Snapshot()

	for i, turn := range cloned.History {
		cloned.History[i].Message = m.redactor.Scrub(turn.Message)
	}
	maskSlots(cloned.Slots, m.patterns)

	return m.next.Save(ctx, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) Unwrap() ports.SessionStore {
	return m.next
}

// Helpers

func maskSlots(slots domain.Slots, patterns []*regexp.Regexp) {
	for name, v := range slots {
		for _, p := range patterns {
			if p.MatchString(name) {
				slots[name] = domain.TextSlot(redact.Mask(v.String(), redact.DefaultMaskChar))
				break
			}
		}
	}
}
