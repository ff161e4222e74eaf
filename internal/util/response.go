package util

import (
	"net/http"

	"expense-tracker/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	MsgValidationFailed = "Validation failed"
	MsgServerError      = "Server error"
	MsgUnauthorized     = "Not authorized"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Success writes data as the JSON body with the given status.
func Success(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// Error writes {"message": msg}.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// ValidationError writes a 400 with the list of field errors.
func ValidationError(c *gin.Context, errs []FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message": MsgValidationFailed,
		"errors":  errs,
	})
}

// ServerError logs err with request context and writes an opaque 500.
func ServerError(c *gin.Context, msg string, err error) {
	logger.Error(msg,
		"error", err,
		"method", c.Request.Method,
		"path", c.FullPath(),
		"user_id", c.GetUint(ContextUserIDKey),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"message": MsgServerError})
}
