package service

import "fmt"

// ValidationError is a client error: missing or malformed field, invalid
// enum value, or a violated uniqueness constraint. Maps to HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced entity id that does not exist.
// Maps to HTTP 404.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}
