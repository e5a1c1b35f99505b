package app

import "errors"

// Sentinel errors shared by the services. Handlers map these to business
// response codes; anything else is treated as an internal error.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("resource not found")
	ErrForbidden         = errors.New("permission denied")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file too large")
	ErrDuplicateFile     = errors.New("duplicate file content")
	ErrNotReady          = errors.New("resource not ready")
)
