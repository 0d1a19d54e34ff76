package response

import (
	"errors"

	"github.com/gin-gonic/gin"
	apperrors "github.com/shuffler/auth-gateway/pkg/errors"
)

// Success sends a successful JSON response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error JSON response
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, body(appErr))
		return
	}

	// Default internal server error
	c.JSON(500, body(apperrors.ErrInternal))
}

// Abort sends an error JSON response and stops the handler chain
func Abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.Status, body(err))
}

// ValidationError sends a validation error response
func ValidationError(c *gin.Context, message string) {
	c.JSON(400, gin.H{
		"error": message,
		"code":  apperrors.ErrCodeValidationFailed,
	})
}

func body(e *apperrors.AppError) gin.H {
	h := gin.H{
		"error": e.Message,
		"code":  e.Code,
	}
	if e.Detail != "" {
		h["message"] = e.Detail
	}
	return h
}
