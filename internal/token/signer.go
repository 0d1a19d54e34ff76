package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
)

// SignatureSize is the length in bytes of every tag produced by Sign.
const SignatureSize = sha256.Size

// Sign computes HMAC-SHA256 of message under key.
func Sign(message, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// signSegments returns the encoded signature over "header.claims".
func signSegments(header, claims string, key []byte) string {
	return Encode(Sign([]byte(header+"."+claims), key))
}

// equalSegments compares two encoded signatures in constant time.
func equalSegments(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
