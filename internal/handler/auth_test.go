package handler_test

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"expense-tracker/internal/handler"
	"expense-tracker/internal/logger"
	"expense-tracker/internal/models"
	"expense-tracker/internal/testutil"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestLogin_FailedCounterWriteErrorIsLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger.InitWithWriter(&buf, "info", "text")
	t.Cleanup(func() { logger.Init("info", "text") })

	db := testutil.NewDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("Secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := db.Create(&models.User{Username: "alice", PasswordHash: string(hash)}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	// every later update of users fails
	err = db.Callback().Update().Before("gorm:update").Register("test:fail_users", func(tx *gorm.DB) {
		if tx.Statement.Table == "users" {
			tx.AddError(errors.New("disk full"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	r := gin.New()
	r.POST("/api/auth/login", handler.NewAuthHandler(db, "secret", "test", 1).Login)

	w := do(t, r, http.MethodPost, "/api/auth/login", nil, `{"username":"alice","password":"Wrong1234"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if line := buf.String(); !strings.Contains(line, "record failed login") || !strings.Contains(line, "disk full") {
		t.Errorf("log = %q, want the failed counter write reported", line)
	}
}
