package replay

import "errors"

var (
	// ErrNoBatches is returned when there is nothing to replay.
	ErrNoBatches = errors.New("no batches to replay")
	// ErrServiceUnavailable is returned when a remote service is not ready.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrPredictionCount is returned when a response does not carry one
	// point per row.
	ErrPredictionCount = errors.New("prediction count mismatch")
)
