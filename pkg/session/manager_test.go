package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sess *domain.Session) error {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[sess.ID] = sess.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[sessionID]; ok {
		return sess.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func appendTurn(msg string) func(context.Context, *domain.Session) error {
	return func(_ context.Context, s *domain.Session) error {
		s.AddTurn(domain.RoleUser, msg, time.Now())
		return nil
	}
}

func TestManager_UpdateSerializesSameSession(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store, session.WithHistoryWindow(100))
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	writers := 20
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			_, _, err := manager.Update(ctx, id, appendTurn(fmt.Sprintf("msg-%d", val)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, writers, sess.TurnCount, "no read-modify-write may be lost")
	assert.Len(t, sess.History, writers)
}

func TestManager_DifferentSessionsDoNotBlock(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	inside := make(chan struct{})
	releaseA := make(chan struct{})
	go func() {
		_, _, _ = manager.Update(ctx, "a", func(context.Context, *domain.Session) error {
			close(inside)
			<-releaseA
			return nil
		})
	}()
	<-inside

	done := make(chan struct{})
	go func() {
		_, _, err := manager.Update(ctx, "b", appendTurn("hello"))
		assert.NoError(t, err)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("turn on session b blocked behind session a")
	}
	close(releaseA)
}

func TestManager_UpdateCreatesInGreeting(t *testing.T) {
	manager := session.NewManager(&SlowStore{}, session.WithHistoryWindow(3))
	ctx := context.Background()

	before, after, err := manager.Update(ctx, "new", func(_ context.Context, s *domain.Session) error {
		assert.Equal(t, domain.StateGreeting, s.State)
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, before)
	assert.Equal(t, 3, after.Window)

	before, _, err = manager.Update(ctx, "new", appendTurn("again"))
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, "new", before.ID)
}

func TestManager_UpdateIsAtomic(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()

	t.Run("failed turn creates nothing", func(t *testing.T) {
		boom := errors.New("boom")
		_, _, err := manager.Update(ctx, "atomic", func(_ context.Context, s *domain.Session) error {
			s.AddTurn(domain.RoleUser, "half", time.Now())
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = manager.Load(ctx, "atomic")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("failed turn leaves existing session untouched", func(t *testing.T) {
		_, _, err := manager.Update(ctx, "atomic", appendTurn("first"))
		require.NoError(t, err)

		_, _, err = manager.Update(ctx, "atomic", func(_ context.Context, s *domain.Session) error {
			s.State = domain.StateCompletion
			s.UpdateSlots(domain.Slots{domain.SlotAccountType: domain.TextSlot("savings")})
			return errors.New("collaborator exploded")
		})
		require.Error(t, err)

		sess, err := manager.Load(ctx, "atomic")
		require.NoError(t, err)
		assert.Equal(t, domain.StateGreeting, sess.State)
		assert.Empty(t, sess.Slots)
		assert.Equal(t, 1, sess.TurnCount)
	})

	t.Run("cancelled context commits nothing", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		_, _, err := manager.Update(cctx, "atomic", func(_ context.Context, s *domain.Session) error {
			s.AddTurn(domain.RoleUser, "late", time.Now())
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)

		sess, err := manager.Load(ctx, "atomic")
		require.NoError(t, err)
		assert.Equal(t, 1, sess.TurnCount)
	})
}

func TestManager_ValidateID(t *testing.T) {
	manager := session.NewManager(&SlowStore{})

	for _, id := range []string{"", "has space", "tab\tid", string(make([]byte, session.MaxIDLength+1))} {
		_, _, err := manager.Update(context.Background(), id, appendTurn("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidSessionID, "%q", id)
	}
	assert.NoError(t, session.ValidateID("user-42:web"))
}

func TestManager_Delete(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	assert.ErrorIs(t, manager.Delete(ctx, "ghost"), domain.ErrSessionNotFound)

	_, _, err := manager.Update(ctx, "gone", appendTurn("hi"))
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "gone"))

	_, err = manager.Load(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_SweepIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := &SlowStore{}
	manager := session.NewManager(store, session.WithIdleTTL(10*time.Minute), session.WithClock(clock))
	ctx := context.Background()

	stale := domain.NewSession("stale", now.Add(-time.Hour))
	fresh := domain.NewSession("fresh", now.Add(-time.Minute))
	require.NoError(t, manager.Save(ctx, stale))
	require.NoError(t, manager.Save(ctx, fresh))

	n, err := manager.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, _ := manager.List(ctx)
	assert.Equal(t, []string{"fresh"}, ids)
}

type sweepingStore struct {
	SlowStore
	calls int
}

func (s *sweepingStore) Sweep(context.Context) (int, error) {
	s.calls++
	return 7, nil
}

var _ ports.Sweeper = (*sweepingStore)(nil)

func TestManager_SweepDelegates(t *testing.T) {
	store := &sweepingStore{}
	manager := session.NewManager(store)

	n, err := manager.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, 1, store.calls)
}

type recordingLocker struct {
	mu      sync.Mutex
	locked  []string
	ttls    []time.Duration
	release int
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.release++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))

	_, _, err := manager.Update(context.Background(), "dist", appendTurn("hi"))
	require.NoError(t, err)

	assert.Equal(t, []string{"dist"}, locker.locked)
	assert.Equal(t, []time.Duration{5 * time.Second}, locker.ttls)
	assert.Equal(t, 1, locker.release)
}
