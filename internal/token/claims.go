package token

import "time"

// Lifetime is how long an issued token stays valid.
const Lifetime = 30 * 24 * time.Hour

// User is the identity a token is issued for
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Claims represents the token payload. Field order is the serialized key
// order and must not change.
type Claims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// User returns the identity encoded in the claims
func (c *Claims) User() User {
	return User{Email: c.Email, Name: c.Name}
}

// ExpiresAtTime returns the expiry as a time.Time
func (c *Claims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// header is the fixed first segment of every token
type header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// Header constants
const (
	AlgorithmHS256 = "HS256"
	TypeJWT        = "JWT"
)
