package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TokenCookie is the cookie name accepted as a token source.
const TokenCookie = "et_token"

// AuthMiddleware checks the JWT and its session, then puts the current user
// into the context.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.MsgUnauthorized)
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			util.Error(c, http.StatusUnauthorized, "Token is not valid")
			c.Abort()
			return
		}

		ctxDB := db.WithContext(c.Request.Context())

		var session models.Session
		if err := ctxDB.First(&session, "id = ?", claims.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Error(c, http.StatusUnauthorized, "Session has ended, please log in again")
			} else {
				util.ServerError(c, "load session", err)
			}
			c.Abort()
			return
		}
		if session.Revoked || session.UserID != claims.UserID || !session.ExpiresAt.After(time.Now()) {
			util.Error(c, http.StatusUnauthorized, "Session has ended, please log in again")
			c.Abort()
			return
		}

		var user models.User
		if err := ctxDB.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				util.Error(c, http.StatusUnauthorized, "User no longer exists")
			} else {
				util.ServerError(c, "load user", err)
			}
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, &user)
		c.Set(util.ContextUserIDKey, user.ID)
		c.Set(util.ContextSessionIDKey, session.ID)
		c.Next()
	}
}

// tokenFromRequest reads the bearer header, then ?token= (downloads), then
// the cookie.
func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}
