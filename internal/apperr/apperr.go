package apperr

import "errors"

// Error kinds surfaced by the engine. Callers match with errors.Is;
// the HTTP layer maps each kind to a status code.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrDuplicateIdentity  = errors.New("identity already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrStorage            = errors.New("storage unavailable")
)
