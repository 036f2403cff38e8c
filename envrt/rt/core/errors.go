package core

import "errors"

var (
	// ErrInvalidConfig is wrapped by every Initialize that rejects its configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNotInitialized is returned by operations called before a successful Initialize.
	ErrNotInitialized = errors.New("not initialized")
	// ErrDegraded marks a component whose GPU resources failed to create.
	ErrDegraded = errors.New("component degraded")
)
