package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAppError_Is(t *testing.T) {
	detailed := ErrCodeNotAuthorized.WithDetail("ask an admin")

	if !stderrors.Is(detailed, ErrCodeNotAuthorized) {
		t.Error("errors.Is(detailed, ErrCodeNotAuthorized) = false")
	}
	if !stderrors.Is(fmt.Errorf("wrap: %w", detailed), ErrCodeNotAuthorized) {
		t.Error("errors.Is(wrapped, ErrCodeNotAuthorized) = false")
	}
	if stderrors.Is(detailed, ErrInvalidToken) {
		t.Error("errors.Is(detailed, ErrInvalidToken) = true")
	}
	if ErrCodeNotAuthorized.Detail != "" {
		t.Error("WithDetail() mutated the shared instance")
	}
}

func TestAppError_Error(t *testing.T) {
	if got := ErrInvalidToken.Error(); got != "[INVALID_TOKEN] Invalid or expired token" {
		t.Errorf("Error() = %q", got)
	}
	if got := ErrCodeNotAuthorized.WithDetail("x").Error(); got != "[CODE_NOT_AUTHORIZED] Access code not authorized: x" {
		t.Errorf("Error() = %q", got)
	}
}
