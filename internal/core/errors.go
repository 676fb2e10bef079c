package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks failures caused by the service's own setup, such
	// as an unreadable prompt template. They surface as HTTP 500.
	ErrConfiguration = errors.New("configuration error")

	// ErrKeyNotFound is returned by key stores when a key does not exist.
	ErrKeyNotFound = errors.New("api key not found")

	// ErrShuttingDown is returned when work is submitted after shutdown began.
	ErrShuttingDown = errors.New("service is shutting down")

	// ErrDeployDisabled is returned when no deploy script is configured.
	ErrDeployDisabled = errors.New("deploy script not configured")
)

// ValidationError reports caller input that was rejected. The reason is safe
// to show to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}
