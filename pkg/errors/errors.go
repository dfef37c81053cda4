package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared across the identity core.
//
// ErrInvalidCredentials covers both an unknown username and a wrong password:
// the two cases must stay indistinguishable to the caller so that login
// responses cannot be used for username enumeration. ErrTokenInvalid likewise
// covers malformed, badly signed, expired AND revoked tokens.
// ErrCacheUnavailable is internal only; it is never mapped to a response and
// always degrades to the database fallback.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCacheUnavailable   = errors.New("cache unavailable")
	ErrInternal           = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// InvalidCredentials creates a 401 error with a deliberately generic message.
// Unknown user, wrong password and revoked/invalid tokens all surface through
// this constructor or TokenInvalid so responses carry no extra signal.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:    "INVALID_CREDENTIALS",
		Message: "invalid username or password",
		Status:  http.StatusUnauthorized,
		Err:     ErrInvalidCredentials,
	}
}

// TokenInvalid creates a 401 error used for malformed, expired and revoked
// tokens alike.
func TokenInvalid() *AppError {
	return &AppError{
		Code:    "TOKEN_INVALID",
		Message: "invalid or expired token",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenInvalid,
	}
}

// AccountDisabled creates a 403 error. Unlike credential failures this state
// is safe to disclose: it is not a secret-guessing vector.
func AccountDisabled() *AppError {
	return &AppError{
		Code:    "ACCOUNT_DISABLED",
		Message: "account is disabled",
		Status:  http.StatusForbidden,
		Err:     ErrAccountDisabled,
	}
}

// PermissionDenied creates a 403 error for an authenticated caller lacking a
// required permission code.
func PermissionDenied(permission string) *AppError {
	return &AppError{
		Code:    "PERMISSION_DENIED",
		Message: fmt.Sprintf("missing permission %q", permission),
		Status:  http.StatusForbidden,
		Err:     ErrPermissionDenied,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountDisabled), errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
