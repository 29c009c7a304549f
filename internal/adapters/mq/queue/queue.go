// Package queue provides the bounded FIFO that feeds one partition worker.
//
// Jobs for the same entity always land in the same queue, so FIFO order
// within a queue is what keeps per-entity row order intact.
package queue

import (
	"context"
	"sync"

	"github.com/okian/trackcast/internal/domain/model"
	"github.com/okian/trackcast/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Job is one row scheduled on a partition.
type Job struct {
	// Index is the row position in the batch; results are written there.
	Index int
	Obs   model.Observation
	// Run performs the row. Done is called after Run returns.
	Run  func(ctx context.Context, index int, obs model.Observation)
	Done func()
}

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue blocks until the job is buffered, the context ends, or the
	// queue is closed.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns the receive side. It is closed when the queue closes.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	name     string

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		name:     "0",
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdatePartitionQueueDepth(q.name, 0)
	return q
}

// Enqueue adds a job, waiting for room when the buffer is full.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	// Read lock keeps Close from closing the channel under a pending send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordPartitionEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.jobs <- j:
		metrics.UpdatePartitionQueueDepth(q.name, len(q.jobs))
		return nil
	case <-ctx.Done():
		metrics.RecordPartitionEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue exposes the job channel. The context is accepted for interface
// symmetry; consumers select on their own context.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.jobs)
	metrics.UpdatePartitionQueueDepth(q.name, n)
	return n
}

// Close stops accepting jobs. Buffered jobs remain readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
