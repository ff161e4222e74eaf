package database_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"expense-tracker/internal/config"
	"expense-tracker/internal/database"
	"expense-tracker/internal/models"
	"expense-tracker/internal/testutil"
)

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := database.Init(config.DatabaseConfig{Driver: "mongo"})
	if err == nil {
		t.Fatal("Init() error = nil, want error for unknown driver")
	}
}

func TestInit_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "app.db")
	db, err := database.Init(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	db := testutil.NewDB(t)

	for _, model := range []any{&models.User{}, &models.Transaction{}, &models.Session{}, &models.AuditLog{}} {
		if !db.Migrator().HasTable(model) {
			t.Errorf("table for %T not created", model)
		}
	}
	if !db.Migrator().HasIndex(&models.Transaction{}, "idx_tx_user_date") {
		t.Error("index idx_tx_user_date not created")
	}
}

func TestInit_SQLitePragmasOnEveryConnection(t *testing.T) {
	db := testutil.NewDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB() error = %v", err)
	}

	ctx := context.Background()
	// hold several connections at once so each one is a distinct session
	var conns []*sql.Conn
	for i := 0; i < 3; i++ {
		conn, err := sqlDB.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn() error = %v", err)
		}
		conns = append(conns, conn)
	}
	defer func() {
		for _, conn := range conns {
			conn.Close()
		}
	}()

	for i, conn := range conns {
		var fk, timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("conn %d foreign_keys: %v", i, err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("conn %d busy_timeout: %v", i, err)
		}
		if fk != 1 || timeout != 5000 {
			t.Errorf("conn %d: foreign_keys=%d busy_timeout=%d, want 1/5000", i, fk, timeout)
		}
	}
}

func TestAutoMigrate_BackfillsCategoryKey(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "alice")
	tx := testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "CAFÉ", 450, testutil.Date(2024, 1, 1))

	// simulate a row written before category_key existed
	if err := db.Model(&models.Transaction{}).Where("id = ?", tx.ID).UpdateColumn("category_key", "").Error; err != nil {
		t.Fatalf("clear key: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	var got models.Transaction
	if err := db.First(&got, tx.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.CategoryKey != "café" {
		t.Errorf("category_key = %q, want café", got.CategoryKey)
	}
}
