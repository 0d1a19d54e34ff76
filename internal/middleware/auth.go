package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/shuffler/auth-gateway/internal/auth"
	apperrors "github.com/shuffler/auth-gateway/pkg/errors"
	"github.com/shuffler/auth-gateway/pkg/response"
)

// Auth creates an authentication middleware. Rejections carry a generic
// message; the precise reason is only logged and counted by the service.
func Auth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token (format: "Bearer TOKEN")
		tokenString, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, apperrors.ErrMissingAuthHeader)
			return
		}

		claims, err := authService.Identify(c.Request.Context(), tokenString)
		if err != nil {
			response.Abort(c, apperrors.ErrInvalidToken)
			return
		}

		// Set claims in context
		c.Set(auth.ClaimsKey, claims)
		c.Set("email", claims.Email)

		c.Next()
	}
}
