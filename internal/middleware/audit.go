package middleware

import (
	"context"
	"net/http"

	"expense-tracker/internal/logger"
	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditMiddleware stores one AuditLog row per mutating request of an
// authenticated user. Must run after AuthMiddleware.
func AuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}

		user, ok := util.CurrentUser(c)
		if !ok {
			return
		}

		entry := models.AuditLog{
			UserID:    user.ID,
			Method:    c.Request.Method,
			Path:      truncate(c.Request.URL.Path, 255),
			Status:    c.Writer.Status(),
			IP:        c.ClientIP(),
			UserAgent: truncate(c.Request.UserAgent(), 255),
		}

		// the row is written even if the client already went away
		ctx := context.WithoutCancel(c.Request.Context())
		if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
			logger.Warn("write audit log", "error", err, "user_id", user.ID, "path", entry.Path)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
