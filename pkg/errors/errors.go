package errors

import "fmt"

// AppError represents a custom application error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Detail  string `json:"message,omitempty"`
	Status  int    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is matches any AppError carrying the same code, so errors.Is works against
// the shared instances below even when a detail was attached.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying a client-facing detail
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// Common error codes
const (
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeCodeNotAuthorized    = "CODE_NOT_AUTHORIZED"
	ErrCodeDirectoryUnavailable = "DIRECTORY_UNAVAILABLE"
	ErrCodeMissingEmail         = "MISSING_EMAIL"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeInvalidToken         = "INVALID_TOKEN"
	ErrCodeRateLimitExceeded    = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
)

// NewAppError creates a new application error
func NewAppError(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// Common errors
var (
	ErrCodeRequired         = NewAppError(ErrCodeValidationFailed, "Access code is required", 400)
	ErrInvalidRequest       = NewAppError(ErrCodeValidationFailed, "Invalid request body", 400)
	ErrCodeNotAuthorized    = NewAppError(ErrCodeCodeNotAuthorized, "Access code not authorized", 403)
	ErrDirectoryUnavailable = NewAppError(ErrCodeDirectoryUnavailable, "Failed to verify access code", 500)
	ErrMissingEmail         = NewAppError(ErrCodeMissingEmail, "User record missing email information", 500)
	ErrMissingAuthHeader    = NewAppError(ErrCodeUnauthorized, "Missing or invalid authorization header", 401)
	ErrInvalidToken         = NewAppError(ErrCodeInvalidToken, "Invalid or expired token", 401)
	ErrRateLimitExceeded    = NewAppError(ErrCodeRateLimitExceeded, "Too many verification attempts", 429)
	ErrInternal             = NewAppError(ErrCodeInternalError, "Internal server error", 500)
	ErrNotFound             = NewAppError(ErrCodeNotFound, "Not found", 404)
)
