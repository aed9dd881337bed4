package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner(t *testing.T) {
	b := Banner()
	assert.Contains(t, b, "exit")
	assert.Contains(t, b, "|___/")
}

func TestRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("Your **checking** balance is $2450.32.")
	require.NoError(t, err)
	assert.Contains(t, out, "checking")

	out, err = Plain("**as is**")
	require.NoError(t, err)
	assert.Equal(t, "**as is**", out)
}
