package repository

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// MemStore is an in-memory Store. Unbounded stores keep a plain map; bounded
// stores keep an LRU cache that evicts the least recently touched entity.
type MemStore struct {
	mu                    sync.RWMutex
	byKey                 map[model.Key]model.State
	cache                 *lru.Cache[model.Key, model.State]
	maxEntities           int
	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewMemStore constructs a store with configuration options and starts a
// background metrics updater that stops with ctx or Close.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxEntities > 0 {
		// Only a non-positive size fails.
		s.cache, _ = lru.NewWithEvict(s.maxEntities, func(model.Key, model.State) {
			metrics.RecordStoreEviction()
		})
	} else {
		s.byKey = make(map[model.Key]model.State)
	}

	metrics.UpdateEntitiesTracked(0)
	s.startMetricsUpdater(ctx)
	return s
}

// Get implements Store.Get. In bounded mode it marks the entity as touched.
func (s *MemStore) Get(_ context.Context, key model.Key) (model.State, bool) {
	if s.cache != nil {
		return s.cache.Get(key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byKey[key]
	return st, ok
}

// Upsert implements Store.Upsert.
func (s *MemStore) Upsert(_ context.Context, key model.Key, st model.State) {
	if s.cache != nil {
		s.cache.Add(key, st)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey[key] = st
}

// Lookup implements Store.Lookup. It does not count as a touch.
func (s *MemStore) Lookup(_ context.Context, key model.Key) (Entry, error) {
	var (
		st model.State
		ok bool
	)
	if s.cache != nil {
		st, ok = s.cache.Peek(key)
	} else {
		s.mu.RLock()
		st, ok = s.byKey[key]
		s.mu.RUnlock()
	}
	if !ok {
		return Entry{}, ErrNotFound
	}
	return Entry{Key: key, State: st}, nil
}

// Count implements Store.Count.
func (s *MemStore) Count(_ context.Context) int {
	if s.cache != nil {
		return s.cache.Len()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Close stops the background metrics updater.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// startMetricsUpdater publishes the entity count periodically.
func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateEntitiesTracked(s.Count(ctx))
			}
		}
	}()
}
