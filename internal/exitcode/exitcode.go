// Package exitcode defines exit codes for the CLI.
package exitcode

import (
	"errors"

	"demandhook/internal/demand"
	"demandhook/internal/service"
)

const (
	// Success indicates successful completion.
	Success = 0

	// ValidationError indicates a demand rejected before any remote call.
	ValidationError = 1

	// ConfigError indicates unusable configuration, such as a missing token.
	ConfigError = 2

	// BackendError indicates a remote stage failed.
	BackendError = 3

	// InternalError indicates an unexpected failure.
	InternalError = 4
)

// For maps an error returned by the demand workflow to an exit code.
func For(err error) int {
	var se *demand.StageError
	switch {
	case err == nil:
		return Success
	case errors.Is(err, service.ErrValidation):
		return ValidationError
	case errors.As(err, &se), service.IsRemote(err):
		return BackendError
	default:
		return InternalError
	}
}
