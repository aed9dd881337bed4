package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestBackend_Query(t *testing.T) {
	skipOnWindows(t)

	b := New()
	b.Register(domain.IntentGetBalance, "sh", "-c", `printf '{"balance": 10.5, "account_type": "%s"}' "$PARLEY_SLOT_ACCOUNT_TYPE"`)
	b.Register("echo_slots", "sh", "-c", `printf '%s' "$PARLEY_SLOTS"`)
	b.Register("plain", "sh", "-c", `echo "$PARLEY_INTENT done"`)
	b.Register("broken", "sh", "-c", `echo boom >&2; exit 3`)
	b.Register("bad_json", "sh", "-c", `echo '{not json'`)
	ctx := context.Background()

	t.Run("Returns JSON object", func(t *testing.T) {
		res, err := b.Query(ctx, domain.IntentGetBalance, domain.Slots{"account_type": domain.TextSlot("savings")})
		require.NoError(t, err)
		assert.Equal(t, 10.5, res["balance"])
		assert.Equal(t, "savings", res["account_type"])
	})

	t.Run("Passes slots as JSON", func(t *testing.T) {
		res, err := b.Query(ctx, "echo_slots", domain.Slots{"amount": domain.AmountSlot(5, "EUR")})
		require.NoError(t, err)
		assert.Contains(t, res, "amount")
	})

	t.Run("Wraps plain text", func(t *testing.T) {
		res, err := b.Query(ctx, "plain", nil)
		require.NoError(t, err)
		assert.Equal(t, "plain done", res["message"])
	})

	t.Run("Reports failures with stderr", func(t *testing.T) {
		_, err := b.Query(ctx, "broken", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("Rejects malformed JSON", func(t *testing.T) {
		_, err := b.Query(ctx, "bad_json", nil)
		assert.Error(t, err)
	})

	t.Run("Fails For Unregistered Intent", func(t *testing.T) {
		_, err := b.Query(ctx, "hacker_script", nil)
		assert.ErrorIs(t, err, ErrNotRegistered)
	})
}

func TestBackend_Fallback(t *testing.T) {
	called := ""
	fallback := ports.BackendFunc(func(_ context.Context, intent string, _ domain.Slots) (map[string]any, error) {
		called = intent
		return map[string]any{"ok": true}, nil
	})
	b := New(WithFallback(fallback))

	res, err := b.Query(context.Background(), "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, true, res["ok"])
	assert.Equal(t, "anything", called)
}

func TestBackend_ContextCancel(t *testing.T) {
	skipOnWindows(t)

	b := New()
	b.Register("slow", "sleep", "5")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Query(ctx, "slow", nil)
	assert.Error(t, err)
}

func TestLoadBackends(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing file", func(t *testing.T) {
		got, err := LoadBackends(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("YAML", func(t *testing.T) {
		path := filepath.Join(dir, "backends.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
backends:
  - intent: get_balance
    command: ./bin/balance
    args: ["--json"]
    env:
      BANK_URL: http://localhost
  - intent: ""
    command: ignored
`), 0644))

		got, err := LoadBackends(path)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "./bin/balance", got["get_balance"].Command)
		assert.Equal(t, []string{"--json"}, got["get_balance"].Args)
		assert.Equal(t, "http://localhost", got["get_balance"].Environment["BANK_URL"])

		b := New(WithRegistry(got))
		assert.Equal(t, []string{"get_balance"}, b.Intents())
	})

	t.Run("JSON duplicate intent", func(t *testing.T) {
		path := filepath.Join(dir, "backends.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"backends":[{"intent":"a","command":"x"},{"intent":"a","command":"y"}]}`), 0644))

		_, err := LoadBackends(path)
		assert.Error(t, err)
	})
}
