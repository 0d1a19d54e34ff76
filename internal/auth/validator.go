package auth

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxCodeLength bounds the access code accepted from clients
const MaxCodeLength = 256

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateVerifyRequest validates a verification request and normalizes its
// code in place
func ValidateVerifyRequest(req *VerifyRequest) error {
	req.Code = SanitizeCode(req.Code)

	if req.Code == "" {
		return ValidationError{Field: "code", Message: "Access code is required"}
	}
	if utf8.RuneCountInString(req.Code) > MaxCodeLength {
		return ValidationError{
			Field:   "code",
			Message: fmt.Sprintf("Access code must be at most %d characters", MaxCodeLength),
		}
	}

	return nil
}

// SanitizeCode trims surrounding whitespace from an access code
func SanitizeCode(code string) string {
	return strings.TrimSpace(code)
}

// BearerToken extracts the token from an Authorization header value. ok is
// false unless the header uses the Bearer scheme.
func BearerToken(header string) (token string, ok bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
