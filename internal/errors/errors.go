package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors shared across the application. Handlers translate them to
// HTTP statuses via HTTPStatusFromErr.
var (
	ErrNotFound              = new(ErrCodeNotFound, "resource not found")
	ErrAlreadyExists         = new(ErrCodeAlreadyExists, "resource already exists")
	ErrValidation            = new(ErrCodeValidation, "validation error")
	ErrInvalidOperation      = new(ErrCodeInvalidOperation, "invalid operation")
	ErrDatabase              = new(ErrCodeDatabase, "database error")
	ErrSystem                = new(ErrCodeSystemError, "system error")
	ErrSignatureInvalid      = new(ErrCodeSignatureInvalid, "webhook signature verification failed")
	ErrProviderNotConfigured = new(ErrCodeProviderNotConfigured, "payment provider not configured")
	ErrProviderAPI           = new(ErrCodeProviderAPI, "payment provider api error")
	ErrDuplicatePlan         = new(ErrCodeDuplicatePlan, "plan already active for organization")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:              http.StatusNotFound,
		ErrAlreadyExists:         http.StatusConflict,
		ErrValidation:            http.StatusBadRequest,
		ErrInvalidOperation:      http.StatusBadRequest,
		ErrDatabase:              http.StatusInternalServerError,
		ErrSystem:                http.StatusInternalServerError,
		ErrSignatureInvalid:      http.StatusBadRequest,
		ErrProviderNotConfigured: http.StatusServiceUnavailable,
		ErrProviderAPI:           http.StatusInternalServerError,
		ErrDuplicatePlan:         http.StatusBadRequest,
	}
)

const (
	ErrCodeNotFound              = "not_found"
	ErrCodeAlreadyExists         = "already_exists"
	ErrCodeValidation            = "validation_error"
	ErrCodeInvalidOperation      = "invalid_operation"
	ErrCodeDatabase              = "database_error"
	ErrCodeSystemError           = "system_error"
	ErrCodeSignatureInvalid      = "signature_invalid"
	ErrCodeProviderNotConfigured = "provider_not_configured"
	ErrCodeProviderAPI           = "provider_api_error"
	ErrCodeDuplicatePlan         = "duplicate_plan_requested"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Op      string // Logical operation name
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsSignatureInvalid checks if an error is a webhook signature error
func IsSignatureInvalid(err error) bool {
	return errors.Is(err, ErrSignatureInvalid)
}

// IsDuplicatePlan checks if an error is a duplicate plan request
func IsDuplicatePlan(err error) bool {
	return errors.Is(err, ErrDuplicatePlan)
}

// IsProviderAPI checks if an error came back from the payment provider
func IsProviderAPI(err error) bool {
	return errors.Is(err, ErrProviderAPI)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
