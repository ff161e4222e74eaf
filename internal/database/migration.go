package database

import (
	"fmt"

	"expense-tracker/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.Session{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := backfillCategoryKeys(db); err != nil {
		return fmt.Errorf("backfill category keys: %w", err)
	}
	return nil
}

// backfillCategoryKeys fills category_key for rows written before the
// column existed. Lower-casing is done in Go, not SQL, so non-ASCII
// categories fold the same way as on save.
func backfillCategoryKeys(db *gorm.DB) error {
	var batch []models.Transaction
	return db.Select("id", "category").
		Where("category_key = ? AND category <> ?", "", "").
		FindInBatches(&batch, 500, func(_ *gorm.DB, _ int) error {
			for _, t := range batch {
				if err := db.Model(&models.Transaction{}).
					Where("id = ?", t.ID).
					UpdateColumn("category_key", models.CategoryKeyOf(t.Category)).Error; err != nil {
					return err
				}
			}
			return nil
		}).Error
}
