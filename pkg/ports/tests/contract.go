package tests

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/respond"
)

// TemplateSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateSource.
// expected is keyed by intent.
func TemplateSourceContractTest(t *testing.T, src ports.TemplateSource, expected map[string]respond.Template) {
	t.Helper()

	templates, err := src.LoadTemplates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading templates: %v", err)
	}

	t.Run("LoadTemplates_Count", func(t *testing.T) {
		if len(templates) != len(expected) {
			t.Errorf("expected %d templates, got %d", len(expected), len(templates))
		}
	})

	t.Run("LoadTemplates_Content", func(t *testing.T) {
		got := make(map[string]respond.Template, len(templates))
		for _, tpl := range templates {
			if _, dup := got[tpl.Intent]; dup {
				t.Errorf("intent %s returned twice", tpl.Intent)
			}
			got[tpl.Intent] = tpl
		}

		for intent, want := range expected {
			tpl, ok := got[intent]
			if !ok {
				t.Errorf("template %s missing from result", intent)
				continue
			}
			if tpl.Text != want.Text {
				t.Errorf("text mismatch for %s. got %q, want %q", intent, tpl.Text, want.Text)
			}
			if tpl.FollowUp != want.FollowUp {
				t.Errorf("followup mismatch for %s. got %q, want %q", intent, tpl.FollowUp, want.FollowUp)
			}
		}
	})

	t.Run("LoadTemplates_Renderable", func(t *testing.T) {
		gen := respond.New(respond.WithoutDefaults(), respond.WithTemplates(templates...))
		for _, tpl := range templates {
			data := make(map[string]any)
			for _, p := range tpl.Placeholders() {
				data[p] = "x"
			}
			if out := gen.Render(tpl.Intent, data); out == respond.MsgFormatFailure {
				t.Errorf("template %s did not render with all placeholders bound", tpl.Intent)
			}
		}
	})
}
