package error_types

import (
	"context"
	"errors"
)

var (
	// ErrArtifactNotFound is returned when an artifact reference cannot be resolved
	ErrArtifactNotFound = errors.New("artifact not found")
	// ErrMalformedInput is returned when the input dataset is missing required columns
	// or contains values which cannot be parsed
	ErrMalformedInput = errors.New("malformed input")
	// ErrStoreUnavailable is returned for network or service failures talking to the artifact store
	ErrStoreUnavailable = errors.New("artifact store unavailable")
	// ErrInvalidArgument is returned for arguments rejected before any work is done
	ErrInvalidArgument = errors.New("invalid argument")
)

// IsRetryable returns whether the error is a transient store failure
// which may succeed if the run is repeated
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// FromContextError maps a context error (deadline or cancellation) onto ErrStoreUnavailable,
// so timeouts on store calls are reported as retryable
func FromContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}
