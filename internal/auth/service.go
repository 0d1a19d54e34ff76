package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shuffler/auth-gateway/internal/attempt"
	"github.com/shuffler/auth-gateway/internal/directory"
	"github.com/shuffler/auth-gateway/internal/metrics"
	"github.com/shuffler/auth-gateway/internal/token"
	apperrors "github.com/shuffler/auth-gateway/pkg/errors"
	"go.uber.org/zap"
)

// Directory resolves access codes to users
type Directory interface {
	Lookup(ctx context.Context, code string) (*directory.User, error)
}

// RateLimiter interface for rate limiting
type RateLimiter interface {
	Check(ctx context.Context, clientIP string) (allowed bool, remaining int, lockoutRemaining time.Duration, err error)
	RecordFailure(ctx context.Context, clientIP string) error
	RecordSuccess(ctx context.Context, clientIP string) error
}

// TokenIssuer signs and validates gateway tokens
type TokenIssuer interface {
	Issue(user token.User, code string) (string, error)
	Validate(tokenString string) (*token.Claims, error)
	Lifetime() time.Duration
}

// AttemptRecorder stores verification attempts
type AttemptRecorder interface {
	Record(ctx context.Context, code, email, ipAddress string, success bool, reason string) error
}

// Service handles authentication business logic
type Service struct {
	directory    Directory
	tokenService TokenIssuer
	rateLimiter  RateLimiter
	attempts     AttemptRecorder
	logger       *zap.Logger
}

// NewService creates a new authentication service. rateLimiter and attempts
// may be nil.
func NewService(
	dir Directory,
	tokenService TokenIssuer,
	rateLimiter RateLimiter,
	attempts AttemptRecorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		directory:    dir,
		tokenService: tokenService,
		rateLimiter:  rateLimiter,
		attempts:     attempts,
		logger:       logger.Named("auth"),
	}
}

// VerifyRequest represents an access code verification request
type VerifyRequest struct {
	Code string `json:"code"`
}

// UserResponse is the public view of an authenticated user
type UserResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// VerifyResponse represents a successful verification
type VerifyResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	User      UserResponse `json:"user"`
	ExpiresIn string       `json:"expiresIn"`
}

// MeResponse represents the identity behind a valid token
type MeResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
}

// Verify looks the access code up in the directory and issues a token
func (s *Service) Verify(ctx context.Context, code, ipAddress string) (*VerifyResponse, error) {
	start := time.Now()

	// Check rate limit
	if s.rateLimiter != nil {
		allowed, _, lockoutRemaining, err := s.rateLimiter.Check(ctx, ipAddress)
		if err != nil {
			// Log error but don't fail verification
			s.logger.Warn("rate limiter error", zap.Error(err))
		} else if !allowed {
			metrics.RecordRateLimitHit()
			s.finish(ctx, start, code, "", ipAddress, attempt.OutcomeRateLimited)
			return nil, apperrors.ErrRateLimitExceeded.WithDetail(
				fmt.Sprintf("Try again in %s", lockoutRemaining.Round(time.Second)))
		}
	}

	usr, err := s.directory.Lookup(ctx, code)
	if err != nil {
		var denied *directory.NotAuthorizedError
		switch {
		case errors.As(err, &denied):
			if s.rateLimiter != nil {
				if err := s.rateLimiter.RecordFailure(ctx, ipAddress); err != nil {
					s.logger.Warn("failed to record rate limit failure", zap.Error(err))
				}
			}
			s.finish(ctx, start, code, "", ipAddress, attempt.OutcomeNotAuthorized)
			return nil, apperrors.ErrCodeNotAuthorized.WithDetail(denied.Message)

		case errors.Is(err, directory.ErrMissingEmail):
			s.logger.Error("directory record missing email")
			s.finish(ctx, start, code, "", ipAddress, attempt.OutcomeMissingEmail)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrMissingEmail, err)

		default:
			s.logger.Error("directory lookup failed", zap.Error(err))
			s.finish(ctx, start, code, "", ipAddress, attempt.OutcomeUnavailable)
			return nil, fmt.Errorf("%w: %w", apperrors.ErrDirectoryUnavailable, err)
		}
	}

	tokenString, err := s.tokenService.Issue(token.User{Email: usr.Email, Name: usr.Name}, code)
	if err != nil {
		s.logger.Error("failed to generate token", zap.Error(err))
		s.finish(ctx, start, code, usr.Email, ipAddress, attempt.OutcomeInternal)
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInternal, err)
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.RecordSuccess(ctx, ipAddress); err != nil {
			s.logger.Warn("failed to clear rate limit counter", zap.Error(err))
		}
	}
	s.finish(ctx, start, code, usr.Email, ipAddress, attempt.OutcomeSuccess)

	s.logger.Info("access code verified", zap.String("email", usr.Email))

	return &VerifyResponse{
		Success:   true,
		Token:     tokenString,
		User:      UserResponse{Email: usr.Email, Name: usr.Name},
		ExpiresIn: FormatLifetime(s.tokenService.Lifetime()),
	}, nil
}

// finish records metrics and the attempt log entry for one verification
func (s *Service) finish(ctx context.Context, start time.Time, code, email, ipAddress, outcome string) {
	metrics.RecordVerifyAttempt(outcome, time.Since(start))

	if s.attempts == nil {
		return
	}
	success := outcome == attempt.OutcomeSuccess
	if err := s.attempts.Record(ctx, code, email, ipAddress, success, outcome); err != nil {
		s.logger.Warn("failed to record verification attempt", zap.Error(err))
	}
}

// Identify validates a token and returns its claims. Every rejection wraps
// apperrors.ErrInvalidToken; the specific token rejection stays matchable
// with errors.Is for diagnostics.
func (s *Service) Identify(ctx context.Context, tokenString string) (*token.Claims, error) {
	claims, err := s.tokenService.Validate(tokenString)
	if err != nil {
		reason := token.Reason(err)
		metrics.RecordTokenValidation(reason)
		s.logger.Debug("token rejected", zap.String("reason", reason))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	metrics.RecordTokenValidation("success")
	return claims, nil
}

// FormatLifetime renders a token lifetime the way clients display it
func FormatLifetime(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	switch {
	case days == 1 && d%(24*time.Hour) == 0:
		return "1 day"
	case days >= 1 && d%(24*time.Hour) == 0:
		return fmt.Sprintf("%d days", days)
	default:
		return d.String()
	}
}
