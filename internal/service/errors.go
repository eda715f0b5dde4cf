// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrAuthFailure    = errors.New("authentication failed")
	ErrTokenRevoked   = errors.New("token is not held by its user")
	ErrTodoNotFound   = errors.New("todo not found")
)

// ValidationError describes one rejected input field. It matches ErrInvalidInput
// under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
