// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/javajoker/artmarket-backend/internal/utils"
)

// Error kinds. Every error a service returns on purpose wraps exactly one of
// these; anything else is an infrastructure failure.
var (
	ErrValidation     = errors.New("validation failed")
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrUnavailable    = errors.New("service unavailable")
)

// ServiceError carries a client-safe message and, for authentication
// failures, a reason that is only meant for server logs. Resource names the
// missing entity of an ErrNotFound.
type ServiceError struct {
	Kind     error
	Message  string
	Reason   string
	Resource string
	Details  []utils.ValidationError
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

// validateRequest runs the struct tags of req and reports field-level details.
func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		return &ServiceError{
			Kind:    ErrValidation,
			Message: "invalid input",
			Details: utils.GetValidationErrors(err),
		}
	}
	return nil
}

func notFoundError(resource string) error {
	return &ServiceError{
		Kind:     ErrNotFound,
		Message:  resource + " not found",
		Resource: resource,
	}
}

func forbiddenError(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func conflictError(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

// Authentication failure reasons, kept out of client responses.
const (
	ReasonUnknownUser      = "unknown_user"
	ReasonPasswordMismatch = "password_mismatch"
)
