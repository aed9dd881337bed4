// Package loam loads response templates from a directory of Markdown documents.
//
// Each document holds one template: the body is the template text and the
// front matter carries the intent and an optional follow-up line.
//
//	---
//	intent: get_balance
//	followup: Would you like to see transactions?
//	---
//	Your {account_type} balance is ${balance}.
package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/respond"
)

// Loader adapts a Loam repository to ports.TemplateSource.
type Loader struct {
	Repo *loam.TypedRepository[TemplateMetadata]
}

var _ ports.TemplateSource = (*Loader)(nil)

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initialises a read-only, strict Loam repository at dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numeric front matter consistent across formats.
	// Read-only mode stops Loam from creating its sandbox in dev mode.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TemplateMetadata](repo)), nil
}

// LoadTemplates reads every document in the repository as a template.
// Two documents resolving to the same intent are an error.
func (l *Loader) LoadTemplates(ctx context.Context) ([]respond.Template, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	out := make([]respond.Template, 0, len(docs))
	for _, doc := range docs {
		intent := doc.Data.Intent
		if intent == "" {
			intent = trimExtension(filepath.Base(doc.ID))
		}

		if existingPath, ok := seen[intent]; ok {
			return nil, fmt.Errorf("collision detected: intent '%s' is defined in both '%s' and '%s'", intent, existingPath, doc.ID)
		}
		seen[intent] = doc.ID

		text := strings.TrimSpace(doc.Content)
		if text == "" {
			return nil, fmt.Errorf("template %s has no body", doc.ID)
		}

		out = append(out, respond.Template{
			Intent:   intent,
			Text:     text,
			FollowUp: strings.TrimSpace(doc.Data.FollowUp),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Intent < out[j].Intent })
	return out, nil
}

// Watch signals the ID of every template document that changes.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
