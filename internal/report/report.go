// Package report computes aggregate views over a user's transactions.
package report

import (
	"fmt"

	"expense-tracker/internal/models"
	"expense-tracker/internal/query"
	"expense-tracker/internal/util"

	"gorm.io/gorm"
)

// Summary holds income/expense totals for a date range. Amounts are cents.
type Summary struct {
	IncomeCents  int64
	ExpenseCents int64
	IncomeCount  int64
	ExpenseCount int64
}

// BalanceCents is income minus expense.
func (s Summary) BalanceCents() int64 {
	return s.IncomeCents - s.ExpenseCents
}

// TransactionCount is the number of income and expense records.
func (s Summary) TransactionCount() int64 {
	return s.IncomeCount + s.ExpenseCount
}

// SummaryResp is the JSON shape of GET /transactions/stats.
type SummaryResp struct {
	Income           float64 `json:"income"`
	Expense          float64 `json:"expense"`
	Balance          float64 `json:"balance"`
	TransactionCount int64   `json:"transactionCount"`
}

// Resp converts the summary for the API.
func (s Summary) Resp() SummaryResp {
	return SummaryResp{
		Income:           util.CentsToFloat(s.IncomeCents),
		Expense:          util.CentsToFloat(s.ExpenseCents),
		Balance:          util.CentsToFloat(s.BalanceCents()),
		TransactionCount: s.TransactionCount(),
	}
}

type groupRow struct {
	Name  string
	Total int64
	Count int64
}

// Summarize groups the owner's transactions in r by type.
func Summarize(db *gorm.DB, ownerID uint, r query.DateRange) (Summary, error) {
	var rows []groupRow
	err := r.Apply(query.Owned(db, ownerID)).
		Select("type AS name, CAST(SUM(amount_cents) AS BIGINT) AS total, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}

	var s Summary
	for _, row := range rows {
		switch row.Name {
		case models.KindIncome:
			s.IncomeCents, s.IncomeCount = row.Total, row.Count
		case models.KindExpense:
			s.ExpenseCents, s.ExpenseCount = row.Total, row.Count
		}
	}
	return s, nil
}

// CategoryTotal is one row of the expense breakdown.
type CategoryTotal struct {
	Category   string
	TotalCents int64
	Count      int64
}

// CategoryResp is the JSON shape of one breakdown entry.
type CategoryResp struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int64   `json:"count"`
}

// Resp converts the row for the API.
func (c CategoryTotal) Resp() CategoryResp {
	return CategoryResp{
		Category: c.Category,
		Total:    util.CentsToFloat(c.TotalCents),
		Count:    c.Count,
	}
}

// ExpenseByCategory sums the owner's expenses in r per category, largest
// total first. Equal totals are ordered by category name.
func ExpenseByCategory(db *gorm.DB, ownerID uint, r query.DateRange) ([]CategoryTotal, error) {
	var rows []groupRow
	err := r.Apply(query.Owned(db, ownerID)).
		Where("type = ?", models.KindExpense).
		Select("category AS name, CAST(SUM(amount_cents) AS BIGINT) AS total, COUNT(*) AS count").
		Group("category").
		Order("total DESC, name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group expenses by category: %w", err)
	}

	out := make([]CategoryTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategoryTotal{Category: row.Name, TotalCents: row.Total, Count: row.Count})
	}
	return out, nil
}
