// Package service provides the prediction service that implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	workerpool "github.com/okian/trackcast/internal/adapters/mq/worker"
	"github.com/okian/trackcast/internal/adapters/repository"
	"github.com/okian/trackcast/internal/domain/inference"
	"github.com/okian/trackcast/internal/domain/kinematics"
	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/internal/domain/types"
	"github.com/okian/trackcast/pkg/logger"
	"github.com/okian/trackcast/pkg/metrics"
)

const (
	defaultPartitionBuffer = 1024
	defaultMaxBatchRows    = 100_000
)

// Service owns the entity state store and runs prediction batches against it.
type Service struct {
	mu sync.RWMutex
	// batchMu serializes batches so they never interleave on the store.
	batchMu sync.Mutex

	store  *repository.MemStore
	engine *inference.Engine
	pool   *workerpool.Pool
	gate   *inference.Gate

	alpha           float64
	dtFloor         float64
	defaultDT       float64
	maxEntities     int
	partitions      int
	partitionBuffer int
	maxBatchRows    int
	loader          inference.Loader

	started     bool
	batches     atomic.Int64
	rows        atomic.Int64
	lastBatchID atomic.Value

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		alpha:           kinematics.DefaultAlpha,
		dtFloor:         kinematics.DefaultDTFloor,
		defaultDT:       kinematics.DefaultDefaultDT,
		partitions:      1,
		partitionBuffer: defaultPartitionBuffer,
		maxBatchRows:    defaultMaxBatchRows,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gate = inference.NewGate(s.loader)
	return s
}

// Start runs the one-time initialization and builds the store and engine.
// A loader failure is returned as inference.ErrModelLoad.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting prediction service...")

	if err := s.gate.Ensure(ctx); err != nil {
		s.logger.Error(ctx, "initialization failed", logger.Error(err))
		return err
	}

	s.store = repository.NewMemStore(ctx, repository.WithMaxEntities(s.maxEntities))

	engineOpts := []inference.Option{
		inference.WithLogger(s.logger.Named("inference")),
		inference.WithPredictor(kinematics.New(
			kinematics.WithAlpha(s.alpha),
			kinematics.WithDTFloor(s.dtFloor),
			kinematics.WithDefaultDT(s.defaultDT),
		)),
	}
	if s.partitions > 1 {
		s.pool = workerpool.NewPool(s.partitions,
			workerpool.WithPartitionBuffer(s.partitionBuffer),
			workerpool.WithPoolLogger(s.logger.Named("worker-pool")),
		)
		// Workers outlive the start context; Stop shuts them down.
		s.pool.Start(context.WithoutCancel(ctx))
		engineOpts = append(engineOpts, inference.WithPool(s.pool))
	}
	s.engine = inference.NewEngine(s.store, engineOpts...)

	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.Float64("smoothing_alpha", s.alpha),
		logger.Float64("dt_floor", s.dtFloor),
		logger.Int("max_entities", s.maxEntities),
		logger.Int("partitions", s.partitions),
	)
	return nil
}

// Stop releases the worker pool and the store.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping prediction service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
		}
		s.pool = nil
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped",
		logger.Int64("batches", s.batches.Load()),
		logger.Int64("rows", s.rows.Load()),
	)
}

// Ready reports whether initialization has completed.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && s.gate.Ready()
}

// Predict runs one batch and returns one point per row in row order.
func (s *Service) Predict(ctx context.Context, req types.PredictRequest) (types.PredictResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.PredictResponse{}, ErrNotStarted
	}
	if err := s.validate(req); err != nil {
		metrics.RecordErrorByComponent("service", "invalid_batch")
		return types.PredictResponse{}, err
	}

	batchID := req.BatchID
	if batchID == "" {
		batchID = uuid.NewString()
	}
	var aux model.Batch
	if req.TestInput != nil {
		aux = *req.TestInput
	}

	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	start := time.Now()
	points, err := s.engine.PredictBatch(ctx, *req.Test, aux)
	if err != nil {
		s.logger.Error(ctx, "batch failed", logger.String("batch_id", batchID), logger.Error(err))
		return types.PredictResponse{}, fmt.Errorf("predict batch %s: %w", batchID, err)
	}

	s.batches.Add(1)
	s.rows.Add(int64(len(points)))
	s.lastBatchID.Store(batchID)
	s.logger.Debug(ctx, "batch served",
		logger.String("batch_id", batchID),
		logger.Int("rows", len(points)),
		logger.Duration("took", time.Since(start)),
	)
	return types.PredictResponse{BatchID: batchID, Predictions: points}, nil
}

func (s *Service) validate(req types.PredictRequest) error {
	if req.Test == nil {
		return fmt.Errorf("%w: missing test batch", ErrInvalidBatch)
	}
	if n := req.Test.Len(); n > s.maxBatchRows {
		return fmt.Errorf("%w: %d rows exceeds limit %d", ErrBatchTooLarge, n, s.maxBatchRows)
	}
	width := len(req.Test.Columns)
	for i, row := range req.Test.Rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d cells for %d columns", ErrInvalidBatch, i, len(row), width)
		}
	}
	return nil
}

// State returns the stored state for key, or repository.ErrNotFound.
func (s *Service) State(ctx context.Context, key model.Key) (types.StateView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.StateView{}, ErrNotStarted
	}
	entry, err := s.store.Lookup(ctx, key)
	if err != nil {
		return types.StateView{}, err
	}
	return types.StateView{Key: entry.Key.String(), ID: entry.Key, State: entry.State}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := types.Stats{
		Started:      s.started,
		Ready:        s.gate.Ready(),
		Batches:      s.batches.Load(),
		Rows:         s.rows.Load(),
		Partitions:   s.partitions,
		MaxEntities:  s.maxEntities,
		MaxBatchRows: s.maxBatchRows,
		Alpha:        s.alpha,
		DTFloor:      s.dtFloor,
	}
	if id, ok := s.lastBatchID.Load().(string); ok {
		st.LastBatchID = id
	}
	if s.started {
		st.Entities = s.store.Count(ctx)
		metrics.UpdateEntitiesTracked(st.Entities)
	}
	return st
}
