package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"expense-tracker/internal/logger"
	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxFailedLogins = 5
	lockDuration    = 10 * time.Minute
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// AuthHandler handles register/login/logout and account removal.
type AuthHandler struct {
	DB         *gorm.DB
	JWTSecret  string
	Issuer     string
	TokenTTL   time.Duration
	BcryptCost int
}

func NewAuthHandler(db *gorm.DB, jwtSecret, issuer string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		DB:         db,
		JWTSecret:  jwtSecret,
		Issuer:     issuer,
		TokenTTL:   time.Duration(ttlHours) * time.Hour,
		BcryptCost: 12,
	}
}

type userResp struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserResp(u *models.User) userResp {
	return userResp{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// ---------- register ----------

type registerReq struct {
	Username        string `json:"username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	DisplayName     string `json:"displayName" validate:"max=64"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if errs := util.BindJSON(c, &req); errs != nil {
		util.ValidationError(c, errs)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	errs := util.ValidateStruct(&req)
	if req.Username != "" && !usernameRe.MatchString(req.Username) {
		errs = append(errs, util.FieldError{Field: "username", Message: "username must be 3-20 letters, digits or underscores"})
	}
	if req.Password != "" && !isStrongPassword(req.Password) {
		errs = append(errs, util.FieldError{Field: "password", Message: "password must be 8-32 characters with upper case, lower case and a digit"})
	}
	if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		errs = append(errs, util.FieldError{Field: "confirmPassword", Message: "passwords do not match"})
	}
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	db := h.DB.WithContext(c.Request.Context())

	// usernames are unique ignoring case
	var count int64
	if err := db.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", req.Username).
		Count(&count).Error; err != nil {
		util.ServerError(c, "check username", err)
		return
	}
	if count > 0 {
		util.ValidationError(c, []util.FieldError{{Field: "username", Message: "username is already taken"}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.BcryptCost)
	if err != nil {
		util.ServerError(c, "hash password", err)
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}
	if err := db.Create(&user).Error; err != nil {
		util.ServerError(c, "create user", err)
		return
	}

	util.Success(c, http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    toUserResp(&user),
	})
}

// 8-32 characters with upper case, lower case and a digit
func isStrongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 32 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

// ---------- login ----------

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

const msgBadCredentials = "Invalid username or password"

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if errs := util.BindJSON(c, &req); errs != nil {
		util.ValidationError(c, errs)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if errs := util.ValidateStruct(&req); errs != nil {
		util.ValidationError(c, errs)
		return
	}

	db := h.DB.WithContext(c.Request.Context())

	var user models.User
	if err := db.Where("LOWER(username) = LOWER(?)", req.Username).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusUnauthorized, msgBadCredentials)
		} else {
			util.ServerError(c, "load user", err)
		}
		return
	}

	now := time.Now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, "Account is locked, please try again later")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= maxFailedLogins {
			lockUntil := now.Add(lockDuration)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
		}
		if err := db.Save(&user).Error; err != nil {
			logger.Warn("record failed login", "error", err, "user_id", user.ID)
		}
		util.Error(c, http.StatusUnauthorized, msgBadCredentials)
		return
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now

	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(h.TokenTTL),
	}
	token, expiresAt, err := util.GenerateToken(h.JWTSecret, h.Issuer, user.ID, session.ID, h.TokenTTL)
	if err != nil {
		util.ServerError(c, "generate token", err)
		return
	}
	session.ExpiresAt = expiresAt

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		util.ServerError(c, "start session", err)
		return
	}

	util.Success(c, http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expiresAt,
		"user":      toUserResp(&user),
	})
}

// ---------- logout ----------

func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := c.GetString(util.ContextSessionIDKey)
	if sessionID == "" {
		util.Error(c, http.StatusUnauthorized, util.MsgUnauthorized)
		return
	}

	if err := h.DB.WithContext(c.Request.Context()).
		Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("revoked", true).Error; err != nil {
		util.ServerError(c, "revoke session", err)
		return
	}

	util.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// ---------- me ----------

// GetMe returns the current user.
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}
	util.Success(c, http.StatusOK, gin.H{"user": toUserResp(user)})
}

// ---------- delete account ----------

// DeleteAccount permanently removes the caller and everything they own.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Transaction{}, &models.Session{}, &models.AuditLog{}} {
			if err := tx.Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if err != nil {
		util.ServerError(c, "delete account", err)
		return
	}

	// the audit middleware must not write a row for a user that no longer exists
	c.Set(util.ContextUserKey, nil)

	util.Success(c, http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
