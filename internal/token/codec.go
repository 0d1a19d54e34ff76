package token

import (
	"encoding/base64"
	"strings"
)

const base64urlAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Encode returns the unpadded base64url form of b.
func Encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Decode reverses Encode. Input containing characters outside the base64url
// alphabet, padding included, is rejected with ErrMalformed.
func Decode(s string) ([]byte, error) {
	if !isSegment(s) {
		return nil, ErrMalformed
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrMalformed
	}
	return b, nil
}

// isSegment reports whether s could be the output of Encode. A length of
// 1 mod 4 never is.
func isSegment(s string) bool {
	if s == "" || len(s)%4 == 1 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(base64urlAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
