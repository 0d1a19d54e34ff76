package auth

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shuffler/auth-gateway/internal/token"
	apperrors "github.com/shuffler/auth-gateway/pkg/errors"
	"github.com/shuffler/auth-gateway/pkg/response"
)

// Version is reported by the status endpoint
const Version = "1.0.0"

// ClaimsKey is the gin context key holding *token.Claims for authenticated
// requests
const ClaimsKey = "claims"

const healthCheckTimeout = 2 * time.Second

// HealthChecker reports the health of a backing store
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler handles authentication HTTP requests
type Handler struct {
	service *Service
	checks  map[string]HealthChecker
}

// NewHandler creates a new authentication handler. checks are probed by the
// health endpoint; nil means no dependencies.
func NewHandler(service *Service, checks map[string]HealthChecker) *Handler {
	return &Handler{service: service, checks: checks}
}

// Verify exchanges an access code for a token
// POST /api/auth/verify
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrInvalidRequest)
		return
	}

	if err := ValidateVerifyRequest(&req); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) && req.Code != "" {
			response.ValidationError(c, verr.Message)
			return
		}
		response.Error(c, apperrors.ErrCodeRequired)
		return
	}

	result, err := h.service.Verify(c.Request.Context(), req.Code, c.ClientIP())
	if err != nil {
		_ = c.Error(err)
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Me returns the identity carried by the bearer token
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	// Get claims from context (set by auth middleware)
	value, exists := c.Get(ClaimsKey)
	if !exists {
		response.Error(c, apperrors.ErrMissingAuthHeader)
		return
	}

	claims, ok := value.(*token.Claims)
	if !ok {
		response.Error(c, apperrors.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, MeResponse{
		Success: true,
		User:    UserResponse{Email: claims.Email, Name: claims.Name},
	})
}

// Status identifies the service
// GET /
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Shuffler Auth API",
		"version": Version,
	})
}

// Health returns health status of the gateway and its backing stores
// GET /health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := gin.H{}
	for _, name := range names {
		if err := h.checks[name].Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = "unhealthy"
			continue
		}
		results[name] = "healthy"
	}

	body := gin.H{"status": "healthy"}
	if status != http.StatusOK {
		body["status"] = "unhealthy"
	}
	if len(results) > 0 {
		body["checks"] = results
	}

	c.JSON(status, body)
}
