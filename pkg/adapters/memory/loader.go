package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/respond"
)

// Templates implements ports.TemplateSource over a fixed set of templates.
type Templates struct {
	templates []respond.Template
}

// NewTemplates creates a template source. Every template needs an intent.
func NewTemplates(ts ...respond.Template) (*Templates, error) {
	seen := make(map[string]struct{}, len(ts))
	for _, t := range ts {
		if t.Intent == "" {
			return nil, fmt.Errorf("template missing intent")
		}
		if _, dup := seen[t.Intent]; dup {
			return nil, fmt.Errorf("duplicate template for intent %s", t.Intent)
		}
		seen[t.Intent] = struct{}{}
	}
	return &Templates{templates: append([]respond.Template(nil), ts...)}, nil
}

// LoadTemplates returns a copy of the templates.
func (l *Templates) LoadTemplates(ctx context.Context) ([]respond.Template, error) {
	return append([]respond.Template(nil), l.templates...), nil
}
