package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSessionStoreContract(t, store)
}

func TestMemoryStore_ContractWithLimits(t *testing.T) {
	store := memory.NewStore(memory.WithTTL(time.Hour), memory.WithMaxSessions(100))
	ports.RunSessionStoreContract(t, store)
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryStore_TTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithTTL(10*time.Minute), memory.WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.NewSession("a", clock.now)))
	clock.Advance(5 * time.Minute)
	require.NoError(t, store.Save(ctx, domain.NewSession("b", clock.now)))

	clock.Advance(6 * time.Minute)
	_, err := store.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "a is idle for 11m")
	_, err = store.Load(ctx, "b")
	assert.NoError(t, err)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)

	assert.Equal(t, 2, store.Len())
	n, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_SaveRefreshesTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithTTL(10*time.Minute), memory.WithClock(clock.Now))
	ctx := context.Background()

	sess := domain.NewSession("a", clock.now)
	require.NoError(t, store.Save(ctx, sess))
	clock.Advance(9 * time.Minute)
	require.NoError(t, store.Save(ctx, sess))
	clock.Advance(9 * time.Minute)

	_, err := store.Load(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryStore_CapacityEvictsLeastRecent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithMaxSessions(2), memory.WithClock(clock.Now))
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.Save(ctx, domain.NewSession(id, clock.now)))
		clock.Advance(time.Second)
	}
	// Touch a so b becomes the oldest.
	require.NoError(t, store.Save(ctx, domain.NewSession("a", clock.now)))
	clock.Advance(time.Second)
	require.NoError(t, store.Save(ctx, domain.NewSession("c", clock.now)))

	_, err := store.Load(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = store.Load(ctx, "a")
	assert.NoError(t, err)
	_, err = store.Load(ctx, "c")
	assert.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_SweepWithoutTTL(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), domain.NewSession("a", time.Now())))

	n, err := store.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

var _ ports.Sweeper = (*memory.Store)(nil)
