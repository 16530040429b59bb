package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrValidation marks input rejected before any remote call is made.
var ErrValidation = errors.New("validation failed")

// RemoteError is a failed remote call: timeout, transport failure,
// HTTP status >= 400 or an unparseable response body.
type RemoteError struct {
	// Op names the call, e.g. "create task".
	Op string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Text is the response body or a short diagnostic.
	Text string

	Err error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status > 0:
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Text)
	case e.Text != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Text)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": remote call failed"
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *RemoteError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// IsRemote reports whether err is (or wraps) a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
