package token

import "errors"

// Validation rejections. Validate returns exactly one of these or a set of
// claims, never both.
var (
	ErrMalformed         = errors.New("malformed token")
	ErrSignatureMismatch = errors.New("token signature mismatch")
	ErrExpired           = errors.New("token expired")
)

// Reason labels for rejections, used in metrics and diagnostics.
const (
	ReasonMalformed         = "malformed"
	ReasonSignatureMismatch = "signature_mismatch"
	ReasonExpired           = "expired"
	ReasonUnknown           = "unknown"
)

// Reason maps a rejection returned by Validate to its label.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return ReasonMalformed
	case errors.Is(err, ErrSignatureMismatch):
		return ReasonSignatureMismatch
	case errors.Is(err, ErrExpired):
		return ReasonExpired
	default:
		return ReasonUnknown
	}
}
