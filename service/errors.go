package services

import (
	"errors"
	"fmt"
)

// Error kinds. Failures cross the service boundary as tagged errors; only the
// controllers convert them into HTTP responses.
const (
	KindValidation    = "validation"
	KindAccessDenied  = "access_denied"
	KindNotFound      = "not_found"
	KindStateConflict = "state_conflict"
	KindPartialWrite  = "partial_write"
	KindInternal      = "internal"
)

// ServiceError carries a taxonomy kind alongside the message.
type ServiceError struct {
	Kind    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func Validationf(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

func internalErr(msg string, err error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf extracts the taxonomy kind from any error; wrapped and unknown errors
// report KindInternal.
func KindOf(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
