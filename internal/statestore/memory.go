package statestore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type MemoryStore struct {
	data  map[string]*pending
	mu    sync.RWMutex
	ttl   time.Duration
	clock clockwork.Clock
}

type pending struct {
	verifier  string
	expiresAt time.Time
	timer     clockwork.Timer
}

func NewMemoryStore(ttl time.Duration, clock clockwork.Clock) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &MemoryStore{
		data:  make(map[string]*pending),
		ttl:   ttl,
		clock: clock,
	}
}

func (ms *MemoryStore) Begin(ctx context.Context, key, verifier string) error {
	if key == "" {
		return errors.New("empty correlation key")
	}

	entry := &pending{
		verifier:  verifier,
		expiresAt: ms.clock.Now().Add(ms.ttl),
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if old, exists := ms.data[key]; exists {
		old.timer.Stop()
	}
	entry.timer = ms.clock.AfterFunc(ms.ttl, func() { ms.evict(key, entry) })
	ms.data[key] = entry

	return nil
}

func (ms *MemoryStore) Consume(ctx context.Context, key string) (string, error) {
	ms.mu.Lock()
	entry, exists := ms.data[key]
	if exists {
		delete(ms.data, key)
	}
	ms.mu.Unlock()

	if !exists {
		return "", ErrNotFound
	}

	entry.timer.Stop()

	// The timer may not have fired yet even though the deadline passed.
	if !ms.clock.Now().Before(entry.expiresAt) {
		return "", ErrNotFound
	}

	return entry.verifier, nil
}

func (ms *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len reports the number of pending authorizations.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return len(ms.data)
}

func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	for key, entry := range ms.data {
		entry.timer.Stop()
		delete(ms.data, key)
	}
	return nil
}

// evict removes key only if it still maps to entry, so a timer left over
// from an earlier Begin cannot delete a newer entry.
func (ms *MemoryStore) evict(key string, entry *pending) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if current, exists := ms.data[key]; exists && current == entry {
		delete(ms.data, key)
	}
}
