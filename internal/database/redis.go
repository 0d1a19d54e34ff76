package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisConnectTimeout = 5 * time.Second

	// Limiter commands run inline with every verify request
	redisCommandTimeout = 500 * time.Millisecond
	redisPoolSize       = 10
)

// RedisClient is the connection backing the verify rate limiter
type RedisClient struct {
	*redis.Client
}

// NewRedisClient connects to redisURL. Timeouts and pool size not set in the
// URL's query string default to values sized for limiter traffic.
func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opt, err := redisOptions(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{Client: client}, nil
}

func redisOptions(redisURL string) (*redis.Options, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if opt.ReadTimeout == 0 {
		opt.ReadTimeout = redisCommandTimeout
	}
	if opt.WriteTimeout == 0 {
		opt.WriteTimeout = redisCommandTimeout
	}
	if opt.PoolSize == 0 {
		opt.PoolSize = redisPoolSize
	}
	return opt, nil
}

// Health pings Redis; used by /health when rate limiting is enabled
func (r *RedisClient) Health(ctx context.Context) error {
	return r.Ping(ctx).Err()
}
