// Package repository defines the entity state store interface and errors.
package repository

import (
	"context"

	"github.com/okian/trackcast/internal/domain/model"
)

// Entry is a stored state together with its key.
type Entry struct {
	Key   model.Key
	State model.State
}

// Store holds the motion state per entity for the lifetime of the process.
type Store interface {
	// Get returns the state for key and whether one exists.
	Get(ctx context.Context, key model.Key) (model.State, bool)

	// Upsert unconditionally overwrites the state for key.
	Upsert(ctx context.Context, key model.Key, st model.State)

	// Lookup returns the state for key or ErrNotFound.
	Lookup(ctx context.Context, key model.Key) (Entry, error)

	// Count returns the number of tracked entities.
	Count(ctx context.Context) int
}
