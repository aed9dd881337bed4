package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/respond"
)

// TemplateSource supplies response templates, e.g. from a directory of documents.
type TemplateSource interface {
	LoadTemplates(ctx context.Context) ([]respond.Template, error)
}
