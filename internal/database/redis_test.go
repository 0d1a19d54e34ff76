package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisClient() failed: %v", err)
	}
	defer client.Close()

	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health() failed: %v", err)
	}
}

func TestNewRedisClient_Invalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"bad scheme", "http://localhost:6379"},
		{"unreachable", "redis://127.0.0.1:1/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRedisClient(context.Background(), tt.url); err == nil {
				t.Errorf("NewRedisClient(%q) should fail", tt.url)
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantRead  time.Duration
		wantWrite time.Duration
		wantPool  int
	}{
		{"defaults", "redis://localhost:6379/0", redisCommandTimeout, redisCommandTimeout, redisPoolSize},
		{"from url", "redis://localhost:6379/0?read_timeout=2s&write_timeout=1s&pool_size=3", 2 * time.Second, time.Second, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := redisOptions(tt.url)
			if err != nil {
				t.Fatalf("redisOptions() failed: %v", err)
			}
			if opt.ReadTimeout != tt.wantRead {
				t.Errorf("ReadTimeout = %v, want %v", opt.ReadTimeout, tt.wantRead)
			}
			if opt.WriteTimeout != tt.wantWrite {
				t.Errorf("WriteTimeout = %v, want %v", opt.WriteTimeout, tt.wantWrite)
			}
			if opt.PoolSize != tt.wantPool {
				t.Errorf("PoolSize = %d, want %d", opt.PoolSize, tt.wantPool)
			}
		})
	}
}
