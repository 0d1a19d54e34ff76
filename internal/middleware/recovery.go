package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/shuffler/auth-gateway/internal/requestid"
	apperrors "github.com/shuffler/auth-gateway/pkg/errors"
	"github.com/shuffler/auth-gateway/pkg/response"
	"go.uber.org/zap"
)

// Recovery creates a panic recovery middleware
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					zap.Any("error", err),
					zap.String("request_id", requestid.FromContext(c.Request.Context())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"),
				)

				response.Abort(c, apperrors.ErrInternal)
			}
		}()

		c.Next()
	}
}
