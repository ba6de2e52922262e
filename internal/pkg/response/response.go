package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"figureit/internal/pkg/apperr"
	"figureit/internal/pkg/validator"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

// SuccessWithWarning reports a write that went through with a degraded dependent step.
func SuccessWithWarning(c *gin.Context, statusCode int, data interface{}, warning string) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
		"warning": warning,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError maps the apperr taxonomy onto HTTP. fallback is shown when err
// carries no user-facing message.
func FromError(c *gin.Context, err error, fallback string) {
	var fields validator.Errors
	switch {
	case errors.As(err, &fields):
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", fields.First(), fields)
	case errors.Is(err, apperr.ErrValidation):
		Error(c, http.StatusBadRequest, "VALIDATION_ERROR", apperr.Message(err, fallback))
	case errors.Is(err, apperr.ErrNotFound):
		Error(c, http.StatusNotFound, "NOT_FOUND", apperr.Message(err, fallback))
	case errors.Is(err, apperr.ErrRemoteRead):
		Error(c, http.StatusInternalServerError, "FAILED_TO_LOAD", apperr.Message(err, fallback))
	case errors.Is(err, apperr.ErrRemoteWrite), errors.Is(err, apperr.ErrPartial):
		Error(c, http.StatusInternalServerError, "WRITE_FAILED", apperr.Message(err, fallback))
	default:
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
	_ = c.Error(err)
}
