package error_types

import "errors"

const (
	ExitCodeSuccess         = 0
	ExitCodeFailure         = 1
	ExitCodeInvalidArgument = 2
)

// ExitCode returns the process exit code for an error returned by a run
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrInvalidArgument):
		return ExitCodeInvalidArgument
	default:
		return ExitCodeFailure
	}
}
