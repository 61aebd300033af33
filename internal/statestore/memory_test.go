package statestore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConsumeOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultTTL, clockwork.NewFakeClock())
	defer store.Close()

	require.NoError(t, store.Begin(ctx, "key-1", "verifier-1"))
	require.NoError(t, store.Begin(ctx, "key-2", "verifier-2"))

	got, err := store.Consume(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier-1", got)

	_, err = store.Consume(ctx, "key-1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = store.Consume(ctx, "key-2")
	require.NoError(t, err)
	assert.Equal(t, "verifier-2", got)
}

func TestMemoryStoreUnknownKey(t *testing.T) {
	store := NewMemoryStore(DefaultTTL, clockwork.NewFakeClock())

	_, err := store.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(DefaultTTL, clock)

	require.NoError(t, store.Begin(ctx, "stale", "v"))
	require.NoError(t, store.Begin(ctx, "fresh", "v2"))
	assert.Equal(t, 2, store.Len())

	clock.Advance(DefaultTTL - time.Second)
	got, err := store.Consume(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	clock.Advance(time.Second)

	_, err = store.Consume(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStoreEvictionTimerRemovesEntry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(time.Minute, clock)

	require.NoError(t, store.Begin(ctx, "k", "v"))
	clock.Advance(time.Minute)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStoreRebeginKeepsNewestEntry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	store := NewMemoryStore(time.Minute, clock)

	require.NoError(t, store.Begin(ctx, "k", "old"))
	clock.Advance(30 * time.Second)
	require.NoError(t, store.Begin(ctx, "k", "new"))

	// The first entry's deadline passes; its timer was stopped.
	clock.Advance(45 * time.Second)

	got, err := store.Consume(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestMemoryStoreRejectsEmptyKey(t *testing.T) {
	store := NewMemoryStore(DefaultTTL, clockwork.NewFakeClock())
	assert.Error(t, store.Begin(context.Background(), "", "v"))
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultTTL, clockwork.NewFakeClock())

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i)
			assert.NoError(t, store.Begin(ctx, key, key+"-verifier"))
		}(i)
	}
	wg.Wait()
	require.Equal(t, n, store.Len())

	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := store.Consume(ctx, fmt.Sprintf("key-%d", i))
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, fmt.Sprintf("key-%d-verifier", i), v)
	}
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreConcurrentConsumeSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultTTL, clockwork.NewFakeClock())
	require.NoError(t, store.Begin(ctx, "contested", "v"))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(ctx, "contested"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
