package service

import (
	"github.com/okian/trackcast/internal/domain/inference"
	"github.com/okian/trackcast/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSmoothing sets the velocity blend weight and the delta-time floor.
// Zero values keep the defaults.
func WithSmoothing(alpha, dtFloor float64) Option {
	return func(s *Service) {
		if alpha > 0 && alpha <= 1 {
			s.alpha = alpha
		}
		if dtFloor > 0 {
			s.dtFloor = dtFloor
		}
	}
}

// WithDefaultDT sets the delta-time used when a row carries no timing.
func WithDefaultDT(dt float64) Option {
	return func(s *Service) {
		if dt > 0 {
			s.defaultDT = dt
		}
	}
}

// WithMaxEntities bounds the state store; 0 keeps every entity.
func WithMaxEntities(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxEntities = n
		}
	}
}

// WithPartitions sets the number of key partitions; 1 runs sequentially.
func WithPartitions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.partitions = n
		}
	}
}

// WithPartitionBuffer bounds each partition queue.
func WithPartitionBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.partitionBuffer = n
		}
	}
}

// WithMaxBatchRows caps the rows accepted in one batch.
func WithMaxBatchRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchRows = n
		}
	}
}

// WithModelLoader sets the one-time initialization run by Start.
func WithModelLoader(load inference.Loader) Option {
	return func(s *Service) {
		if load != nil {
			s.loader = load
		}
	}
}
