package inference

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/trackcast/pkg/metrics"
)

// Loader performs the one-time heavy initialization.
type Loader func(ctx context.Context) error

// Gate runs its loader at most once per process, however many callers race
// on Ensure. The outcome of that single run is remembered.
type Gate struct {
	once  sync.Once
	load  Loader
	err   error
	ready atomic.Bool
}

// NewGate creates a gate around load. A nil loader is a no-op.
func NewGate(load Loader) *Gate {
	if load == nil {
		load = func(context.Context) error { return nil }
	}
	return &Gate{load: load}
}

// Ensure runs the loader on first call and returns its result, wrapped in
// ErrModelLoad on failure, on every call.
func (g *Gate) Ensure(ctx context.Context) error {
	g.once.Do(func() {
		err := g.load(ctx)
		metrics.RecordModelLoad(err)
		if err != nil {
			g.err = fmt.Errorf("%w: %w", ErrModelLoad, err)
			return
		}
		g.ready.Store(true)
	})
	return g.err
}

// Ready reports whether the loader has run successfully.
func (g *Gate) Ready() bool { return g.ready.Load() }
