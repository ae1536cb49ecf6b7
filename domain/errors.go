package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConcurrentModification is returned by stores when a conditional write
// loses the version check. Services retry a bounded number of times before
// surfacing it as a ConflictError.
var ErrConcurrentModification = errors.New("entity modified concurrently")

type ValidationError struct {
	Message  string
	Rejected []string
}

func (e *ValidationError) Error() string {
	if len(e.Rejected) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Rejected, "; "))
}

func NewValidationError(message string, rejected ...string) *ValidationError {
	return &ValidationError{Message: message, Rejected: rejected}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
