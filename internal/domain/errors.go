package domain

import "errors"

var (
	// ErrNotFound is returned when an entry, thread or comment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the permission gate rejects a mutation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotConfigured is returned when no container is configured for a collection kind.
	ErrNotConfigured = errors.New("container not configured")

	// ErrInvalidArgument is returned when a request payload fails validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated is returned when no actor can be resolved for the request.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUpstream marks a failed call to an external collaborator.
	ErrUpstream = errors.New("upstream failure")
)

// UpstreamError wraps a collaborator failure.
//
// Error() only names the failed operation so that the message can be shown
// to clients; the collaborator error stays reachable through Unwrap.
type UpstreamError struct {
	Op  string
	Err error
}

// Upstream wraps err as an UpstreamError for op. A nil err yields nil.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Op: op, Err: err}
}

func (e *UpstreamError) Error() string { return e.Op + ": upstream failure" }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
