package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shuffler/auth-gateway/internal/config"
	"go.uber.org/zap"
)

// DefaultDenyMessage is shown when the directory refuses a code without
// saying why.
const DefaultDenyMessage = "Please contact an administrator."

const maxBodySize = 1 << 20

var (
	// ErrUnavailable is returned when the directory cannot be reached or
	// answers with a non-2xx status
	ErrUnavailable = errors.New("user directory unavailable")

	// ErrBadResponse is returned when the directory answers with something
	// other than the expected JSON envelope
	ErrBadResponse = errors.New("unexpected user directory response")

	// ErrNotAuthorized is matched by *NotAuthorizedError
	ErrNotAuthorized = errors.New("access code not authorized")

	// ErrMissingEmail is returned when an authorized record has no email
	ErrMissingEmail = errors.New("user record missing email")
)

// NotAuthorizedError carries the directory's explanation for a refused code
type NotAuthorizedError struct {
	Message string
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotAuthorized, e.Message)
}

// Is reports whether target is ErrNotAuthorized
func (e *NotAuthorizedError) Is(target error) bool {
	return target == ErrNotAuthorized
}

// User is a directory record
type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// envelope is the directory's response format
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    *User  `json:"data"`
}

// Client looks access codes up in the remote user directory
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *retryablehttp.Client
	cache      *expirable.LRU[string, User]
	logger     *zap.Logger
}

// NewClient creates a new directory client. Transient failures are retried
// up to cfg.MaxRetries times within cfg.Timeout. Successful lookups are
// cached when cfg.CacheSize is positive.
func NewClient(cfg config.DirectoryConfig, logger *zap.Logger) *Client {
	logger = logger.Named("directory")

	c := &Client{
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		timeout: cfg.Timeout,
		httpClient: &retryablehttp.Client{
			HTTPClient:   cleanhttp.DefaultPooledClient(),
			Logger:       leveledLogger{logger.Sugar()},
			RetryWaitMin: 100 * time.Millisecond,
			RetryWaitMax: time.Second,
			RetryMax:     cfg.MaxRetries,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.LinearJitterBackoff,
			ErrorHandler: retryablehttp.PassthroughErrorHandler,
		},
		logger: logger,
	}

	if cfg.CacheSize > 0 {
		c.cache = expirable.NewLRU[string, User](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	return c
}

// LookupURL returns the directory URL for an access code
func (c *Client) LookupURL(code string) string {
	return fmt.Sprintf("%s/api/shufflerusers/%s.json", c.baseURL, url.PathEscape(code))
}

// Lookup resolves an access code to a user
func (c *Client) Lookup(ctx context.Context, code string) (*User, error) {
	if c.cache != nil {
		if usr, ok := c.cache.Get(code); ok {
			return &usr, nil
		}
	}

	usr, err := c.fetch(ctx, code)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Add(code, *usr)
	}

	return usr, nil
}

func (c *Client) fetch(ctx context.Context, code string) (*User, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.LookupURL(code), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		// url.Error carries the lookup URL, which contains the code
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("directory request failed", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = DefaultDenyMessage
		}
		return nil, &NotAuthorizedError{Message: msg}
	}

	if env.Data == nil || env.Data.Email == "" {
		return nil, ErrMissingEmail
	}

	return env.Data, nil
}

// Purge drops every cached lookup
func (c *Client) Purge() {
	if c.cache != nil {
		c.cache.Purge()
	}
}

// leveledLogger routes retry logging through zap. Request URLs and request
// descriptions, including URLs embedded in *url.Error values, are dropped
// because they contain the access code.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, scrub(keysAndValues)...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, scrub(keysAndValues)...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, scrub(keysAndValues)...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, scrub(keysAndValues)...)
}

func scrub(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, 0, len(keysAndValues))
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 == len(keysAndValues) {
			out = append(out, keysAndValues[i])
			break
		}
		switch keysAndValues[i] {
		case "url", "request":
			continue
		}
		value := keysAndValues[i+1]
		if err, ok := value.(error); ok {
			var uerr *url.Error
			if errors.As(err, &uerr) {
				value = uerr.Err
			}
		}
		out = append(out, keysAndValues[i], value)
	}
	return out
}
