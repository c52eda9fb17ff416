package store

import "errors"

// Sentinel errors for store configuration.
var (
	ErrInvalidBufferSize      = errors.New("buffer size must not be negative")
	ErrInvalidToleranceWindow = errors.New("tolerance window must not be negative")
)
