package prep

import "errors"

// Sentinel error kinds for data preparation. Both are fatal; callers should
// not retry.
var (
	ErrMissingSourceFiles = errors.New("missing source files")
	ErrMissingColumns     = errors.New("missing required columns")
)
