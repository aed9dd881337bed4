package parley_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/respond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifier(intent string, confidence float64) parley.Option {
	return parley.WithClassifier(ports.ClassifierFunc(func(context.Context, string) (string, float64, error) {
		return intent, confidence, nil
	}))
}

func TestNew_Defaults(t *testing.T) {
	eng, err := parley.New()
	require.NoError(t, err)

	_, err = eng.ProcessMessage(context.Background(), "s", "hi")
	assert.ErrorIs(t, err, domain.ErrClassifierNotConfigured)
}

func TestNew_InvalidSessionID(t *testing.T) {
	eng, err := parley.New(classifier(domain.IntentGetBalance, 0.9))
	require.NoError(t, err)

	_, err = eng.ProcessMessage(context.Background(), "", "hi")
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)
}

func TestNew_Thresholds(t *testing.T) {
	eng, err := parley.New(
		classifier(domain.IntentGetBalance, 0.55),
		parley.WithClarifyThreshold(0.6),
		parley.WithEscalateThreshold(0.56),
	)
	require.NoError(t, err)

	res, err := eng.ProcessMessage(context.Background(), "s", "balance?")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionEscalate, res.Action)
}

func TestNew_HighRiskAndKeywords(t *testing.T) {
	eng, err := parley.New(
		classifier(domain.IntentLostOrStolenCard, 0.9),
		parley.WithHighRiskIntents(domain.IntentLostOrStolenCard),
		parley.WithSensitiveKeywords("mother's maiden name"),
		parley.WithRequiredSlots(map[string][]string{}),
	)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := eng.ProcessMessage(ctx, "s", "my card is gone")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionVerify, res.Action)

	res, err = eng.ProcessMessage(ctx, "s", "my mother's maiden name is Smith")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRefuseAndEscalate, res.Action)

	res, err = eng.ProcessMessage(ctx, "s", "what is my pin")
	require.NoError(t, err)
	assert.NotEqual(t, domain.ActionRefuseAndEscalate, res.Action, "custom keywords replace the defaults")
}

func TestNew_TemplatesFromDirAndOptions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "get_balance.md"), []byte(`---
followup: Anything else?
---
Balance: {balance}`), 0644))

	backend := parley.WithBackend(ports.BackendFunc(func(context.Context, string, domain.Slots) (map[string]any, error) {
		return map[string]any{"balance": 12.0, "card_last4": "1234"}, nil
	}))

	eng, err := parley.New(
		classifier(domain.IntentGetBalance, 0.9),
		backend,
		parley.WithRequiredSlots(map[string][]string{}),
		parley.WithTemplateDir(dir),
	)
	require.NoError(t, err)

	res, err := eng.ProcessMessage(context.Background(), "s", "balance")
	require.NoError(t, err)
	assert.Equal(t, "Balance: 12.00\nAnything else?", res.Response)

	eng, err = parley.New(
		classifier(domain.IntentGetBalance, 0.9),
		backend,
		parley.WithRequiredSlots(map[string][]string{}),
		parley.WithTemplateDir(dir),
		parley.WithTemplates(respond.Template{Intent: domain.IntentGetBalance, Text: "Card {card_last4}"}),
	)
	require.NoError(t, err)

	res, err = eng.ProcessMessage(context.Background(), "s", "balance")
	require.NoError(t, err)
	assert.Equal(t, "Card 1234", res.Response)
}

type failingSource struct{}

func (failingSource) LoadTemplates(context.Context) ([]respond.Template, error) {
	return nil, errors.New("disk on fire")
}

func TestNew_TemplateSourceError(t *testing.T) {
	_, err := parley.New(parley.WithTemplateSource(failingSource{}))
	assert.ErrorContains(t, err, "disk on fire")
}

func TestNew_StoreMiddleware(t *testing.T) {
	inner := memory.NewStore()
	key := []byte("0123456789abcdef0123456789abcdef")
	eng, err := parley.New(
		classifier(domain.IntentGetBalance, 0.9),
		parley.WithStore(inner),
		parley.WithStoreMiddleware(
			middleware.NewPIIMiddleware(nil, []string{"^card_last4$"}),
			middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
		),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.ProcessMessage(ctx, "s", "balance for 4111 1111 1111 1111")
	require.NoError(t, err)

	raw, err := inner.Load(ctx, "s")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.History, "only the envelope reaches the inner store")

	sess, err := eng.GetSession(ctx, "s")
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
	assert.NotContains(t, sess.History[0].Message, "4111 1111 1111")
}

func TestEngine_IdleSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	eng, err := parley.New(
		classifier(domain.IntentGetBalance, 0.9),
		parley.WithIdleTTL(time.Minute),
		parley.WithClock(clock),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = eng.ProcessMessage(ctx, "s", "balance")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	n, err := eng.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = eng.GetSession(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_SessionOperations(t *testing.T) {
	eng, err := parley.New(classifier(domain.IntentGetBalance, 0.9), parley.WithHistoryWindow(2))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := eng.ProcessMessage(ctx, "s", "balance")
		require.NoError(t, err)
	}

	sess, err := eng.GetSession(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, sess.History, 2)
	assert.Equal(t, 6, sess.TurnCount)

	recent, err := eng.Recent(ctx, "s", 5)
	require.NoError(t, err)
	assert.Equal(t, "user: balance\nbot: I need your account type. Can you provide it?", recent)

	list, err := eng.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s", list[0].SessionID)

	require.NoError(t, eng.DeleteSession(ctx, "s"))
	list, err = eng.ListSessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
