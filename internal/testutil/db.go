// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"expense-tracker/internal/config"
	"expense-tracker/internal/database"
	"expense-tracker/internal/models"

	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database in a per-test temp dir.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{Username: username, PasswordHash: "x"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

// CreateTransaction inserts a transaction for the given owner.
func CreateTransaction(t *testing.T, db *gorm.DB, userID uint, kind, category string, cents int64, at time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		Type:        kind,
		Category:    category,
		AmountCents: cents,
		OccurredAt:  at,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
