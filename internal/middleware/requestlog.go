package middleware

import (
	"time"

	"expense-tracker/internal/logger"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", routeLabel(c),
			"status", status,
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		}
		if id := c.GetUint(util.ContextUserIDKey); id != 0 {
			args = append(args, "user_id", id)
		}

		switch {
		case status >= 500:
			logger.Error("request", args...)
		case status >= 400:
			logger.Warn("request", args...)
		default:
			logger.Info("request", args...)
		}
	}
}
