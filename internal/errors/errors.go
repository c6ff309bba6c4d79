package errors

import (
	"errors"
)

// Common error types
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrNoPrivileges = errors.New("no privileges")
	ErrUnsupported  = errors.New("unsupported")
)
