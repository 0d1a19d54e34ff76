package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shuffler/auth-gateway/internal/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cacheSize int) (*Client, *int32) {
	return newRetryingTestClient(t, handler, cacheSize, 0)
}

func newRetryingTestClient(t *testing.T, handler http.HandlerFunc, cacheSize, retries int) (*Client, *int32) {
	t.Helper()
	return newLoggedTestClient(t, handler, cacheSize, retries, zap.NewNop())
}

func newLoggedTestClient(t *testing.T, handler http.HandlerFunc, cacheSize, retries int, logger *zap.Logger) (*Client, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.DirectoryConfig{
		Endpoint:   srv.URL + "/",
		Timeout:    2 * time.Second,
		MaxRetries: retries,
		CacheSize:  cacheSize,
		CacheTTL:   time.Minute,
	}, logger)

	return client, &calls
}

func TestClient_LookupSuccess(t *testing.T) {
	var gotPath, gotContentType string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"success":true,"message":"ok","data":{"name":"Test User","email":"test@example.com"}}`))
	}, 0)

	usr, err := client.Lookup(context.Background(), "ABC 1/2")
	require.NoError(t, err)
	require.Equal(t, "test@example.com", usr.Email)
	require.Equal(t, "Test User", usr.Name)
	require.Equal(t, "/api/shufflerusers/ABC%201%2F2.json", gotPath)
	require.Equal(t, "application/json", gotContentType)
}

func TestClient_LookupNotAuthorized(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"with message", `{"success":false,"message":"Code revoked"}`, "Code revoked"},
		{"without message", `{"success":false}`, DefaultDenyMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, 0)

			_, err := client.Lookup(context.Background(), "ABC123")
			require.ErrorIs(t, err, ErrNotAuthorized)

			var denied *NotAuthorizedError
			require.True(t, errors.As(err, &denied))
			require.Equal(t, tt.wantMessage, denied.Message)
		})
	}
}

func TestClient_LookupFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, `oops`, ErrUnavailable},
		{"not found", http.StatusNotFound, `{"success":false}`, ErrUnavailable},
		{"not json", http.StatusOK, `<html></html>`, ErrBadResponse},
		{"missing data", http.StatusOK, `{"success":true}`, ErrMissingEmail},
		{"missing email", http.StatusOK, `{"success":true,"data":{"name":"No Email"}}`, ErrMissingEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, 0)

			_, err := client.Lookup(context.Background(), "ABC123")
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var attempts int32
	client, calls := newRetryingTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"name":"A","email":"a@example.com"}}`))
	}, 0, 2)

	usr, err := client.Lookup(context.Background(), "ABC123")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", usr.Email)
	require.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestClient_RetriesExhausted(t *testing.T) {
	client, calls := newRetryingTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, 0, 1)

	_, err := client.Lookup(context.Background(), "ABC123")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestClient_DenialIsNotRetried(t *testing.T) {
	client, calls := newRetryingTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}, 0, 2)

	_, err := client.Lookup(context.Background(), "ABC123")
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestClient_LookupUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := NewClient(config.DirectoryConfig{Endpoint: endpoint, Timeout: time.Second}, zap.NewNop())

	_, err := client.Lookup(context.Background(), "ABC123")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_LookupCanceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Lookup(ctx, "ABC123")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_CachesSuccessOnly(t *testing.T) {
	var succeed atomic.Bool
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if succeed.Load() {
			w.Write([]byte(`{"success":true,"data":{"name":"A","email":"a@example.com"}}`))
			return
		}
		w.Write([]byte(`{"success":false}`))
	}, 16)

	_, err := client.Lookup(context.Background(), "ABC123")
	require.ErrorIs(t, err, ErrNotAuthorized)

	succeed.Store(true)
	for i := 0; i < 3; i++ {
		usr, err := client.Lookup(context.Background(), "ABC123")
		require.NoError(t, err)
		require.Equal(t, "a@example.com", usr.Email)
	}
	require.Equal(t, int32(2), atomic.LoadInt32(calls))

	client.Purge()
	_, err = client.Lookup(context.Background(), "ABC123")
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestClient_LookupURL(t *testing.T) {
	client := NewClient(config.DirectoryConfig{Endpoint: "https://example.com/", Timeout: time.Second}, zap.NewNop())

	require.Equal(t, "https://example.com/api/shufflerusers/a%3Fb.json", client.LookupURL("a?b"))
}

func TestScrub(t *testing.T) {
	got := scrub([]interface{}{"method", "GET", "url", "https://x/api/shufflerusers/SECRET.json", "retry", 1})
	require.Equal(t, []interface{}{"method", "GET", "retry", 1}, got)

	got = scrub([]interface{}{"request", "GET https://x/api/shufflerusers/SECRET.json (status: 503)", "remaining", 1})
	require.Equal(t, []interface{}{"remaining", 1}, got)

	dialErr := errors.New("connection refused")
	got = scrub([]interface{}{"error", &url.Error{Op: "Get", URL: "https://x/SECRET.json", Err: dialErr}})
	require.Equal(t, []interface{}{"error", dialErr}, got)

	require.Equal(t, []interface{}{"dangling"}, scrub([]interface{}{"dangling"}))
}

func TestClient_ErrorsDoNotLeakCode(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client := NewClient(config.DirectoryConfig{Endpoint: endpoint, Timeout: time.Second}, zap.NewNop())

	_, err := client.Lookup(context.Background(), "SECRET-CODE")
	require.ErrorIs(t, err, ErrUnavailable)
	require.NotContains(t, err.Error(), "SECRET-CODE")
}

func TestClient_RetryLogsDoNotLeakCode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var attempts int32
	client, calls := newLoggedTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"success":true,"data":{"name":"A","email":"a@example.com"}}`))
	}, 0, 2, zap.New(core))

	_, err := client.Lookup(context.Background(), "SECRET-CODE")
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(calls))

	entries := logs.All()
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		require.NotContains(t, entry.Message, "SECRET-CODE")
		require.NotContains(t, fmt.Sprint(entry.ContextMap()), "SECRET-CODE", "entry %q", entry.Message)
	}
}
