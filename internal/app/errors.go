package service

import "errors"

// Sentinel error kinds returned by the service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidBatch  = errors.New("invalid batch")
	ErrBatchTooLarge = errors.New("batch too large")
)
