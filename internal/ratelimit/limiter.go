package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts failed access-code verifications per client in Redis and
// locks the client out once the limit is reached.
type Limiter struct {
	client          *redis.Client
	window          time.Duration // Time window for counting failures
	maxAttempts     int           // Maximum failures allowed in window
	lockoutDuration time.Duration // How long to block after exceeding limit
}

// Status is a read-only snapshot of a client's limiter state
type Status struct {
	Failures  int
	Remaining int
	Lockout   time.Duration
}

// NewLimiter creates a new rate limiter
func NewLimiter(client *redis.Client, window time.Duration, maxAttempts int, lockoutDuration time.Duration) *Limiter {
	return &Limiter{
		client:          client,
		window:          window,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
	}
}

// AttemptKey returns the Redis key for counting failed verifications
func (l *Limiter) AttemptKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:verify:%s", clientIP)
}

// LockoutKey returns the Redis key for lockout status
func (l *Limiter) LockoutKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:lockout:%s", clientIP)
}

// Check reports whether a verification attempt from clientIP is allowed.
// Returns: allowed, remaining attempts, lockout remaining, error
func (l *Limiter) Check(ctx context.Context, clientIP string) (bool, int, time.Duration, error) {
	lockoutKey := l.LockoutKey(clientIP)

	ttl, err := l.client.TTL(ctx, lockoutKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, 0, fmt.Errorf("failed to check lockout status: %w", err)
	}

	if ttl > 0 {
		return false, 0, ttl, nil
	}

	attemptKey := l.AttemptKey(clientIP)
	count, err := l.client.Get(ctx, attemptKey).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, 0, fmt.Errorf("failed to get attempt count: %w", err)
	}

	remaining := l.maxAttempts - count
	if remaining <= 0 {
		// Exceeded max attempts: lock out and restart the count afterwards
		pipe := l.client.TxPipeline()
		pipe.Set(ctx, lockoutKey, "1", l.lockoutDuration)
		pipe.Del(ctx, attemptKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return false, 0, 0, fmt.Errorf("failed to set lockout: %w", err)
		}
		return false, 0, l.lockoutDuration, nil
	}

	return true, remaining, 0, nil
}

// RecordFailure records a failed verification
func (l *Limiter) RecordFailure(ctx context.Context, clientIP string) error {
	attemptKey := l.AttemptKey(clientIP)

	count, err := l.client.Incr(ctx, attemptKey).Result()
	if err != nil {
		return fmt.Errorf("failed to increment attempt counter: %w", err)
	}

	// Set expiry on first attempt
	if count == 1 {
		if err := l.client.Expire(ctx, attemptKey, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	return nil
}

// RecordSuccess clears the failure counter after a successful verification
func (l *Limiter) RecordSuccess(ctx context.Context, clientIP string) error {
	if err := l.client.Del(ctx, l.AttemptKey(clientIP)).Err(); err != nil {
		return fmt.Errorf("failed to clear attempt counter: %w", err)
	}
	return nil
}

// ClearLockout manually clears a lockout
func (l *Limiter) ClearLockout(ctx context.Context, clientIP string) error {
	if err := l.client.Del(ctx, l.LockoutKey(clientIP), l.AttemptKey(clientIP)).Err(); err != nil {
		return fmt.Errorf("failed to clear lockout: %w", err)
	}
	return nil
}

// AttemptCount returns the current failure count
func (l *Limiter) AttemptCount(ctx context.Context, clientIP string) (int, error) {
	count, err := l.client.Get(ctx, l.AttemptKey(clientIP)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempt count: %w", err)
	}
	return count, nil
}

// Status reports a client's failures, remaining attempts and lockout without
// modifying either key. A client at the limit is only locked out by its next
// Check.
func (l *Limiter) Status(ctx context.Context, clientIP string) (Status, error) {
	ttl, err := l.client.TTL(ctx, l.LockoutKey(clientIP)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Status{}, fmt.Errorf("failed to check lockout status: %w", err)
	}

	count, err := l.AttemptCount(ctx, clientIP)
	if err != nil {
		return Status{}, err
	}

	st := Status{Failures: count}
	if ttl > 0 {
		st.Lockout = ttl
		return st, nil
	}
	if remaining := l.maxAttempts - count; remaining > 0 {
		st.Remaining = remaining
	}
	return st, nil
}
