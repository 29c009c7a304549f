// Package repository defines the entity state store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMaxEntities bounds the store. When maxEntities > 0 the least recently
// touched entity is evicted to make room; 0 or negative keeps every entity
// for the lifetime of the process.
func WithMaxEntities(maxEntities int) Option {
	return func(s *MemStore) {
		s.maxEntities = maxEntities
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
