package access

import "errors"

// Stable error kinds surfaced by the service. Callers match them with
// errors.Is. Store failures are wrapped with %w and are never mapped onto
// one of these.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicateName = errors.New("name already in use")
	ErrForbidden     = errors.New("operation not allowed on system role")
	ErrInUse         = errors.New("resource is still referenced")
	ErrAccessDenied  = errors.New("access denied")
)
