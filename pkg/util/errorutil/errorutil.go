package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers.
const (
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
	CodeDuplicateEmail     = "DUPLICATE_EMAIL"
	CodeInvalidRole        = "INVALID_ROLE"
	CodeAlreadyCheckedIn   = "ALREADY_CHECKED_IN"
	CodeNoOpenSession      = "NO_OPEN_SESSION"
	CodeAlreadyCheckedOut  = "ALREADY_CHECKED_OUT"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeUnknownStaff       = "UNKNOWN_STAFF"
	CodeNotAssignee        = "NOT_ASSIGNEE"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// Sentinels for errors.Is checks. Matching is by Code, so errors carrying
// extra details still compare equal.
var (
	ErrForbidden          = NewDomainError(CodeForbidden, "action not permitted for role", http.StatusForbidden, nil)
	ErrDenied             = NewDomainError(CodeUnauthorized, "invalid credentials", http.StatusUnauthorized, nil)
	ErrDuplicateEmail     = NewDomainError(CodeDuplicateEmail, "email already registered", http.StatusConflict, nil)
	ErrInvalidRole        = NewDomainError(CodeInvalidRole, "invalid role", http.StatusBadRequest, nil)
	ErrAlreadyCheckedIn   = NewDomainError(CodeAlreadyCheckedIn, "already checked in today", http.StatusConflict, nil)
	ErrNoOpenSession      = NewDomainError(CodeNoOpenSession, "no open attendance session today", http.StatusConflict, nil)
	ErrAlreadyCheckedOut  = NewDomainError(CodeAlreadyCheckedOut, "already checked out today", http.StatusConflict, nil)
	ErrInvalidTransition  = NewDomainError(CodeInvalidTransition, "invalid status transition", http.StatusConflict, nil)
	ErrUnknownStaff       = NewDomainError(CodeUnknownStaff, "assignee is not a staff member", http.StatusUnprocessableEntity, nil)
	ErrNotAssignee        = NewDomainError(CodeNotAssignee, "ticket is assigned to another staff member", http.StatusForbidden, nil)
	ErrStorageUnavailable = NewDomainError(CodeStorageUnavailable, "storage unavailable", http.StatusServiceUnavailable, nil)
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error carrying details.
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStorageUnavailable wraps an unexpected persistence failure.
func NewStorageUnavailable(err error) error {
	return &DomainError{
		Code:       CodeStorageUnavailable,
		Message:    "storage unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapStorageError keeps domain errors intact and classifies everything else
// as a storage failure.
func MapStorageError(err error) error {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewStorageUnavailable(err)
}
