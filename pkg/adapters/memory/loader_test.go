package memory_test

import (
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/aretw0/parley/pkg/respond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTemplates_Contract(t *testing.T) {
	expected := map[string]respond.Template{
		"greet":   {Intent: "greet", Text: "Hello {name}."},
		"goodbye": {Intent: "goodbye", Text: "Goodbye.", FollowUp: "Come back soon."},
	}

	src, err := memory.NewTemplates(expected["greet"], expected["goodbye"])
	require.NoError(t, err)

	contract.TemplateSourceContractTest(t, src, expected)
}

func TestNewTemplates_Rejects(t *testing.T) {
	_, err := memory.NewTemplates(respond.Template{Text: "no intent"})
	assert.Error(t, err)

	_, err = memory.NewTemplates(respond.Template{Intent: "a", Text: "1"}, respond.Template{Intent: "a", Text: "2"})
	assert.Error(t, err)
}
