package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Transaction kinds.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// Transaction is a single income or expense record owned by one user.
// Amounts are stored in cents; 12.50 is stored as 1250.
type Transaction struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   uint   `gorm:"not null;index:idx_tx_user_date,priority:1;index:idx_tx_user_type,priority:1;index:idx_tx_user_category,priority:1;index:idx_tx_user_category_key,priority:1"`
	Type     string `gorm:"size:16;not null;index:idx_tx_user_type,priority:2"`
	Category string `gorm:"size:30;not null;index:idx_tx_user_category,priority:2"`
	// lower-cased Category for case-insensitive search; SQLite LOWER() only folds ASCII
	CategoryKey string    `gorm:"size:120;not null;default:'';index:idx_tx_user_category_key,priority:2"`
	AmountCents int64     `gorm:"not null"`
	OccurredAt  time.Time `gorm:"not null;index:idx_tx_user_date,priority:2,sort:desc"`
	Note        string    `gorm:"size:100"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// IsValidKind reports whether kind is income or expense.
func IsValidKind(kind string) bool {
	return kind == KindIncome || kind == KindExpense
}

// CategoryKeyOf is the search form of a category.
func CategoryKeyOf(category string) string {
	return strings.ToLower(category)
}

// BeforeSave keeps CategoryKey in step with Category.
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	t.CategoryKey = CategoryKeyOf(t.Category)
	return nil
}
