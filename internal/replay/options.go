package replay

import (
	"time"

	"github.com/okian/trackcast/pkg/logger"
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRunID sets the run identifier used as the batch id prefix.
func WithRunID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// WithMaxFrames stops the replay after n frame batches; 0 replays all.
func WithMaxFrames(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.maxFrames = n
		}
	}
}

// WithProgressInterval sets how often progress is logged.
func WithProgressInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.progressEvery = d
		}
	}
}
