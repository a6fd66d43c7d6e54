package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks requests rejected before any network call.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks transitions not allowed from the current state.
	ErrConflict = errors.New("state conflict")
	// ErrNotFound marks records the backend does not know.
	ErrNotFound = errors.New("not found")
	// ErrRejected marks application level failures reported with success=false.
	ErrRejected = errors.New("rejected by server")
	// ErrUnavailable marks transient network or server failures.
	ErrUnavailable = errors.New("service unavailable")
	// ErrClosed is returned by components that were shut down.
	ErrClosed = errors.New("component closed")
)

// RemoteError carries the human readable message returned by the backend.
type RemoteError struct {
	Kind    error
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// Invalid builds a validation error for the named field.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, field, reason)
}

// Conflict builds a state conflict error.
func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Retryable reports whether err is worth retrying later.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Message extracts a display message from err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return err.Error()
}
