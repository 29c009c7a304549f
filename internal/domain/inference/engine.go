// Package inference drives the kinematic predictor over whole batches.
package inference

import (
	"context"
	"time"

	"github.com/okian/trackcast/internal/adapters/mq/worker"
	"github.com/okian/trackcast/internal/adapters/repository"
	"github.com/okian/trackcast/internal/domain/columns"
	"github.com/okian/trackcast/internal/domain/kinematics"
	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/pkg/logger"
	"github.com/okian/trackcast/pkg/metrics"
)

// Engine processes batches against one shared state store. Callers must not
// run two batches on the same Engine concurrently.
type Engine struct {
	predictor *kinematics.Predictor
	store     repository.Store
	pool      *worker.Pool
	logger    logger.Logger
}

// NewEngine creates an engine over store.
func NewEngine(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		predictor: kinematics.New(),
		store:     store,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("inference")
	}
	return e
}

// Predictor returns the predictor in use.
func (e *Engine) Predictor() *kinematics.Predictor { return e.predictor }

// Partitioned reports whether rows are spread over a worker pool.
func (e *Engine) Partitioned() bool { return e.pool != nil && e.pool.Partitions() > 1 }

// PredictBatch returns one point per row of test, in row order. Rows of the
// same entity see each other's updates in row order. testInput is accepted
// for shape compatibility and not consulted.
//
// Sequential mode never fails. Partitioned mode fails only when ctx is
// already done before any row is dispatched, or the pool has been shut down.
// Once dispatch starts the batch runs to completion.
func (e *Engine) PredictBatch(ctx context.Context, test, _ model.Batch) ([]model.Point, error) {
	start := time.Now()
	obs := columns.ExtractAll(test)
	out := make([]model.Point, len(obs))

	if e.Partitioned() {
		err := e.pool.Dispatch(ctx, obs, func(ctx context.Context, i int, o model.Observation) {
			out[i] = e.step(ctx, o)
		})
		if err != nil {
			metrics.RecordErrorByComponent("inference", "dispatch")
			return nil, err
		}
	} else {
		for i, o := range obs {
			out[i] = e.step(ctx, o)
		}
	}

	took := time.Since(start)
	metrics.RecordBatch(len(out), float64(took.Microseconds())/1000)
	e.logger.Debug(ctx, "batch predicted",
		logger.Int("rows", len(out)),
		logger.Bool("partitioned", e.Partitioned()),
		logger.Duration("took", took),
	)
	return out, nil
}

// step runs one row through the read-modify-write cycle.
func (e *Engine) step(ctx context.Context, o model.Observation) model.Point {
	prior, seen := e.store.Get(ctx, o.Key)
	res := e.predictor.Step(prior, seen, o)
	e.store.Upsert(ctx, o.Key, res.State)

	metrics.RecordTransition(string(res.Transition))
	metrics.RecordDTSource(string(res.DTSource))
	if res.Extrapolated && seen {
		metrics.RecordExtrapolatedRow()
	}
	return res.Point
}
