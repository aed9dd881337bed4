package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_StartsInGreeting(t *testing.T) {
	s := NewSession("abc", time.Now())
	assert.Equal(t, StateGreeting, s.State)
	assert.Empty(t, s.Slots)
	assert.Empty(t, s.History)
}

func TestSession_AddTurn_SlidingWindow(t *testing.T) {
	now := time.Now()
	s := NewSession("abc", now)

	for i := 0; i < DefaultHistoryWindow+5; i++ {
		s.AddTurn(RoleUser, fmt.Sprintf("msg-%d", i), now.Add(time.Duration(i)*time.Second))
	}

	require.Len(t, s.History, DefaultHistoryWindow)
	assert.Equal(t, "msg-5", s.History[0].Message, "oldest turns are discarded first")
	assert.Equal(t, fmt.Sprintf("msg-%d", DefaultHistoryWindow+4), s.History[len(s.History)-1].Message)
	assert.Equal(t, DefaultHistoryWindow+5, s.TurnCount)

	for i := 1; i < len(s.History); i++ {
		assert.False(t, s.History[i].Timestamp.Before(s.History[i-1].Timestamp), "history is chronological")
	}
}

func TestSession_Recent(t *testing.T) {
	now := time.Now()
	s := NewSession("abc", now)
	assert.Equal(t, "", s.Recent(5))

	s.AddTurn(RoleUser, "hello", now)
	s.AddTurn(RoleBot, "hi there", now)
	s.AddTurn(RoleUser, "balance please", now)

	assert.Equal(t, "bot: hi there\nuser: balance please", s.Recent(2))
	assert.Equal(t, "user: hello\nbot: hi there\nuser: balance please", s.Recent(10))
	assert.Equal(t, "", s.Recent(0))
}

func TestSession_UpdateSlots_LaterKeysWin(t *testing.T) {
	s := NewSession("abc", time.Now())
	s.UpdateSlots(Slots{SlotAccountType: TextSlot("checking")})
	s.UpdateSlots(Slots{SlotAccountType: TextSlot("savings"), SlotCardLast4: TextSlot("4321")})

	assert.Equal(t, "savings", s.Slots[SlotAccountType].Text)
	assert.Equal(t, "4321", s.Slots[SlotCardLast4].Text)
}

func TestSession_SnapshotIsIsolated(t *testing.T) {
	now := time.Now()
	s := NewSession("abc", now)
	s.UpdateSlots(Slots{SlotAmountName: AmountSlot(10, "USD")})
	s.AddTurn(RoleUser, "x", now)

	snap := s.Snapshot()
	snap.Slots[SlotAmountName].Amount.Value = 99
	snap.AddTurn(RoleBot, "y", now)
	snap.State = StateCompletion

	assert.Equal(t, 10.0, s.Slots[SlotAmountName].Amount.Value)
	assert.Len(t, s.History, 1)
	assert.Equal(t, StateGreeting, s.State)
}

func TestSession_JSONRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSession("abc", now)
	s.State = StateVerification
	s.UpdateSlots(Slots{
		SlotAmountName:    AmountSlot(500, "USD"),
		SlotDateRangeName: RangeSlot(now.AddDate(0, 0, -7), now),
		SlotTargetAccount: TextSlot("savings"),
	})
	s.AddTurn(RoleUser, "transfer 500 to savings", now)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var loaded Session
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, StateVerification, loaded.State)
	assert.True(t, s.Slots.Equal(loaded.Slots))
	assert.Equal(t, s.History[0].Message, loaded.History[0].Message)
}

func TestState_RejectsUnknownValues(t *testing.T) {
	var s Session
	err := json.Unmarshal([]byte(`{"session_id":"x","state":"idle"}`), &s)
	assert.ErrorIs(t, err, ErrInvalidState)

	for _, st := range States() {
		parsed, err := ParseState(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}
}

func TestSlotValue_String(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "checking", TextSlot("checking").String())
	assert.Equal(t, "2026-01-01 to 2026-01-31", RangeSlot(start, end).String())
	assert.Equal(t, "500.00 EUR", AmountSlot(500, "EUR").String())
}

func TestLifecycleHooks_Merge(t *testing.T) {
	var calls []string
	a := LifecycleHooks{OnTurnEnd: func(_ context.Context, _ *TurnEvent) { calls = append(calls, "a") }}
	b := LifecycleHooks{
		OnTurnEnd:   func(_ context.Context, _ *TurnEvent) { calls = append(calls, "b") },
		OnTurnStart: func(_ context.Context, _ *TurnEvent) { calls = append(calls, "start") },
	}

	merged := a.Merge(b)
	merged.OnTurnStart(context.Background(), &TurnEvent{})
	merged.OnTurnEnd(context.Background(), &TurnEvent{})

	assert.Equal(t, []string{"start", "a", "b"}, calls)
	assert.Nil(t, merged.OnDecision)
}
