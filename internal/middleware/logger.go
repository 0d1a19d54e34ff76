package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shuffler/auth-gateway/internal/requestid"
	"go.uber.org/zap"
)

// Logger creates a logging middleware using zap
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", requestid.FromContext(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}

		for _, e := range c.Errors {
			logger.Debug("request error",
				zap.String("request_id", requestid.FromContext(c.Request.Context())),
				zap.Error(e.Err),
			)
		}
	}
}
