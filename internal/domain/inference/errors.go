package inference

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrModelLoad marks a failed one-time initialization. It is fatal at start.
	ErrModelLoad = errors.New("model load failed")
)
