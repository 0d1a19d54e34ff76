package token

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Service issues and validates HS256 tokens. It is immutable after
// construction and safe for concurrent use.
type Service struct {
	secretKey     []byte
	lifetime      time.Duration
	now           func() time.Time
	encodedHeader string
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for iat, exp and expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new token service
func NewService(secretKey []byte, lifetime time.Duration, opts ...Option) *Service {
	key := make([]byte, len(secretKey))
	copy(key, secretKey)

	s := &Service{
		secretKey: key,
		lifetime:  lifetime,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	h, err := marshal(header{Algorithm: AlgorithmHS256, Type: TypeJWT})
	if err != nil {
		panic(fmt.Sprintf("token: marshal header: %v", err))
	}
	s.encodedHeader = Encode(h)

	return s
}

// Lifetime returns the validity period applied to issued tokens
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Issue generates a signed token for user. The caller is responsible for
// rejecting users without an email before calling Issue.
func (s *Service) Issue(user User, code string) (string, error) {
	now := s.now().Unix()

	return s.sign(Claims{
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now + int64(s.lifetime/time.Second),
	})
}

func (s *Service) sign(claims Claims) (string, error) {
	payload, err := marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	encodedClaims := Encode(payload)
	signature := signSegments(s.encodedHeader, encodedClaims, s.secretKey)

	return s.encodedHeader + "." + encodedClaims + "." + signature, nil
}

// Validate validates a token and returns its claims. The returned error is
// one of ErrMalformed, ErrSignatureMismatch or ErrExpired.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}
	for _, part := range parts {
		if !isSegment(part) {
			return nil, ErrMalformed
		}
	}

	// The signature is compared in its encoded form, as issued.
	expected := signSegments(parts[0], parts[1], s.secretKey)
	if !equalSegments(parts[2], expected) {
		return nil, ErrSignatureMismatch
	}

	payload, err := Decode(parts[1])
	if err != nil {
		return nil, ErrMalformed
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformed
	}

	if claims.ExpiresAt < s.now().Unix() {
		return nil, ErrExpired
	}

	return &claims, nil
}

// Inspect decodes the claims segment without verifying the signature or
// expiry. It is meant for diagnostics only.
func Inspect(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}

	payload, err := Decode(parts[1])
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformed
	}

	return &claims, nil
}

// marshal serializes v without HTML escaping so that names containing <, >
// or & encode the same way a browser's JSON.stringify would.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
