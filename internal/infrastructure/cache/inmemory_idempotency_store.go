package cache

import (
	"context"
	"sync"
	"time"

	"github.com/anycrm/backend/internal/domain/shared"
)

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

const sweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore tracks processed delivery keys in a map with
// per-key expiry. It covers single-instance deployments and tests; a
// multi-instance deployment needs the Redis store.
type InMemoryIdempotencyStore struct {
	mu       sync.RWMutex
	deadline map[string]time.Time

	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewInMemoryIdempotencyStore starts the store and its background sweep
// of expired keys. Call Close to stop the sweeper.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		deadline: make(map[string]time.Time),
		quit:     make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()

	return s
}

// MarkProcessed claims the key for ttl. It reports true when the key
// was newly claimed and false when a live claim already exists.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if until, ok := s.deadline[key]; ok && time.Now().Before(until) {
		return false, nil
	}
	s.deadline[key] = time.Now().Add(ttl)
	return true, nil
}

// IsProcessed reports whether the key holds a live claim. An expired
// claim counts as unprocessed even before the sweeper removes it.
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.deadline[key]
	return ok && time.Now().Before(until), nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.once.Do(func() {
		close(s.quit)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, until := range s.deadline {
		if now.After(until) {
			delete(s.deadline, key)
		}
	}
}

// Size reports the number of tracked keys, live or expired.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deadline)
}
