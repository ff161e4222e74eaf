package util

import (
	"expense-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	ContextUserKey      = "currentUser"
	ContextUserIDKey    = "currentUserID"
	ContextSessionIDKey = "currentSessionID"
)

// CurrentUser returns the authenticated caller, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
