package inference

import (
	"github.com/okian/trackcast/internal/adapters/mq/worker"
	"github.com/okian/trackcast/internal/domain/kinematics"
	"github.com/okian/trackcast/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithPredictor replaces the default kinematic predictor.
func WithPredictor(p *kinematics.Predictor) Option {
	return func(e *Engine) {
		if p != nil {
			e.predictor = p
		}
	}
}

// WithPool enables key-partitioned parallel processing. The pool must be
// started by the caller.
func WithPool(p *worker.Pool) Option {
	return func(e *Engine) {
		e.pool = p
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
