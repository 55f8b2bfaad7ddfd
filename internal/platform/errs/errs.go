// Package errs defines the error kinds shared by every service in the module.
// Concrete errors wrap one of the kinds with fmt.Errorf("%w: ...") so callers can
// classify them with errors.Is; handlers translate kinds into gRPC status codes.
package errs

import "errors"

var (
	// ErrUnauthorized means there is no valid actor identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPermissionDenied means the actor lacks a permission or fails the hierarchy check.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound means a membership, role, organization or request is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicates: pending transfer, role name, existing membership.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState means the operation is not legal in the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation means malformed input.
	ErrValidation = errors.New("validation error")
	// ErrOwnerInvariant protects the single-owner structure of an organization.
	// It is never coerced into a permission error.
	ErrOwnerInvariant = errors.New("owner invariant violation")
)

// Kind returns the kind err wraps, or nil when err is not classified.
func Kind(err error) error {
	for _, k := range []error{
		ErrOwnerInvariant,
		ErrUnauthorized,
		ErrPermissionDenied,
		ErrNotFound,
		ErrConflict,
		ErrInvalidState,
		ErrValidation,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
