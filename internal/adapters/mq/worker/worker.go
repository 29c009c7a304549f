// Package worker runs key-partitioned row processing.
//
// Every entity key hashes to exactly one partition and every partition has
// exactly one worker, so the read-modify-write on an entity's state is never
// interleaved while unrelated entities proceed in parallel.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/trackcast/internal/adapters/mq/queue"
	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/pkg/logger"
	"github.com/okian/trackcast/pkg/metrics"
)

const (
	defaultPartitionBuffer = 1024
	poolShutdownTimeout    = 30 * time.Second
)

// RowFunc processes one row. Calls for the same key never overlap.
type RowFunc func(ctx context.Context, index int, obs model.Observation)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker drains one partition.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after it finishes the current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one partition queue.
type InMemoryWorker struct {
	queue Queue
	name  string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	processed atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("worker")
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			w.abandon(jobs)
			return
		case <-w.shutdown:
			w.abandon(jobs)
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		w.processed.Add(1)
		if j.Done != nil {
			j.Done()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "row processing panicked",
				logger.Int("index", j.Index),
				logger.String("key", j.Obs.Key.String()),
				logger.Any("panic", r),
			)
		}
	}()
	if j.Run != nil {
		j.Run(ctx, j.Index, j.Obs)
	}
}

// abandon acknowledges buffered jobs without running them so dispatchers
// waiting on them are released.
func (w *InMemoryWorker) abandon(jobs <-chan queue.Job) {
	for {
		select {
		case j, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordErrorByComponent("worker", "abandoned")
			if j.Done != nil {
				j.Done()
			}
		default:
			return
		}
	}
}

// Processed returns the number of jobs this worker has completed.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Pool owns one queue and one worker per partition.
type Pool struct {
	queues  []*queue.InMemoryQueue
	workers []*InMemoryWorker
	buffer  int

	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates a pool with the given number of partitions (minimum 1).
func NewPool(partitions int, opts ...PoolOption) *Pool {
	if partitions < 1 {
		partitions = 1
	}
	p := &Pool{
		buffer: defaultPartitionBuffer,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}

	p.queues = make([]*queue.InMemoryQueue, partitions)
	p.workers = make([]*InMemoryWorker, partitions)
	for i := 0; i < partitions; i++ {
		name := strconv.Itoa(i)
		p.queues[i] = queue.NewInMemoryQueue(queue.WithCapacity(p.buffer), queue.WithName(name))
		p.workers[i] = NewInMemoryWorker(p.queues[i], WithName("partition-"+name), WithLogger(p.logger))
	}
	return p
}

// Partitions returns the number of partitions.
func (p *Pool) Partitions() int { return len(p.queues) }

// PartitionOf maps a key to its partition.
func (p *Pool) PartitionOf(k model.Key) int {
	return int(k.Hash() % uint64(len(p.queues)))
}

// Start launches one goroutine per partition.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
	p.logger.Info(ctx, "partition workers started", logger.Int("partitions", len(p.workers)))
}

// Dispatch routes every observation to its key's partition in slice order
// and blocks until all dispatched rows have been processed. Cancellation is
// checked once up front: a batch either touches no state or runs to
// completion, so a retried batch is never applied twice.
func (p *Pool) Dispatch(ctx context.Context, obs []model.Observation, fn RowFunc) error {
	if err := ctx.Err(); err != nil {
		metrics.RecordPartitionEnqueueError()
		return fmt.Errorf("dispatch: %w", err)
	}
	enqueueCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	var dispatchErr error
	for i := range obs {
		wg.Add(1)
		j := queue.Job{Index: i, Obs: obs[i], Run: fn, Done: wg.Done}
		if err := p.queues[p.PartitionOf(obs[i].Key)].Enqueue(enqueueCtx, j); err != nil {
			// Only a closed pool fails here.
			wg.Done()
			dispatchErr = fmt.Errorf("dispatch row %d: %w", i, err)
			break
		}
	}
	wg.Wait()
	return dispatchErr
}

// Shutdown closes every queue and waits for workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	for _, q := range p.queues {
		if err := q.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var processed int64
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("partition", i))
		}
		processed += w.Processed()
	}
	metrics.UpdateWorkerActiveCount(0)
	p.logger.Info(ctx, "partition workers stopped", logger.Int64("rows_processed", processed))
	return nil
}
