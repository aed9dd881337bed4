package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("Save and Load", func(t *testing.T) {
		sess := domain.NewSession(sessionID, now)
		sess.State = domain.StateSlotFilling
		sess.LastIntent = domain.IntentTransferMoney
		sess.FallbackCount = 1
		sess.UpdateSlots(domain.Slots{
			domain.SlotAccountType:   domain.TextSlot("checking"),
			domain.SlotAmountName:    domain.AmountSlot(500, "USD"),
			domain.SlotDateRangeName: domain.RangeSlot(now.AddDate(0, 0, -7), now),
		})
		sess.AddTurn(domain.RoleUser, "transfer 500 to savings", now)
		sess.AddTurn(domain.RoleBot, "I need your source account. Can you provide it?", now)

		require.NoError(t, store.Save(ctx, sess), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sess.ID, loaded.ID)
		assert.Equal(t, domain.StateSlotFilling, loaded.State)
		assert.Equal(t, domain.IntentTransferMoney, loaded.LastIntent)
		assert.Equal(t, 1, loaded.FallbackCount)
		assert.Equal(t, 2, loaded.TurnCount)
		assert.True(t, sess.Slots.Equal(loaded.Slots), "slots should round-trip: %v", loaded.Slots)
		require.Len(t, loaded.History, 2)
		assert.Equal(t, domain.RoleBot, loaded.History[1].Role)
		assert.True(t, now.Equal(loaded.CreatedAt))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State = domain.StateCompletion
		loaded.Slots[domain.SlotCardLast4] = domain.TextSlot("9999")

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.NotEqual(t, domain.StateCompletion, again.State)
		assert.False(t, again.Slots.Has(domain.SlotCardLast4))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, domain.NewSession(sessionID, now)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, domain.NewSession(id1, now)))
		require.NoError(t, store.Save(ctx, domain.NewSession(id2, now)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
