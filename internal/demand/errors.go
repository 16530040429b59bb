package demand

import (
	"errors"
	"fmt"

	"demandhook/internal/service"
)

// ErrInternal marks failures that are neither validation nor remote errors,
// including recovered panics.
var ErrInternal = errors.New("internal error")

// ValidationError reports a required demand field that is absent or blank.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Campo obrigatório ausente: %s", e.Field)
}

func (e *ValidationError) Unwrap() error { return service.ErrValidation }

// StageError reports a stage that failed under the Abort policy.
type StageError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// IsClientError reports whether err should be answered as a bad request
// rather than an internal failure.
func IsClientError(err error) bool {
	var ve *ValidationError
	var se *StageError
	return errors.As(err, &ve) || errors.As(err, &se) || errors.Is(err, service.ErrValidation)
}

// PublicMessage is the text shown to callers for err.
func PublicMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Message
	}
	if errors.Is(err, service.ErrValidation) {
		return err.Error()
	}
	return "Erro interno do servidor"
}
