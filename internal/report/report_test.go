package report_test

import (
	"net/url"
	"testing"

	"expense-tracker/internal/models"
	"expense-tracker/internal/query"
	"expense-tracker/internal/report"
	"expense-tracker/internal/testutil"
)

func dateRange(t *testing.T, start, end string) query.DateRange {
	t.Helper()
	q := url.Values{}
	if start != "" {
		q.Set("startDate", start)
	}
	if end != "" {
		q.Set("endDate", end)
	}
	r, errs := query.ParseDateRange(q)
	if errs != nil {
		t.Fatalf("ParseDateRange: %v", errs)
	}
	return r
}

func TestSummarize_WorkedExample(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "alice")
	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Food", 1250, testutil.Date(2024, 1, 5))
	testutil.CreateTransaction(t, db, u.ID, models.KindIncome, "Salary", 100000, testutil.Date(2024, 1, 1))

	s, err := report.Summarize(db, u.ID, dateRange(t, "2024-01-01", "2024-01-05"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}

	got := s.Resp()
	want := report.SummaryResp{Income: 1000, Expense: 12.5, Balance: 987.5, TransactionCount: 2}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestSummarize_EmptyRangeIsZero(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "bob")
	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Food", 1250, testutil.Date(2024, 1, 5))

	s, err := report.Summarize(db, u.ID, dateRange(t, "2025-01-01", "2025-12-31"))
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got := s.Resp(); got != (report.SummaryResp{}) {
		t.Errorf("Summarize() over empty range = %+v, want zeros", got)
	}
}

func TestSummarize_Invariants(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "carol")
	other := testutil.CreateUser(t, db, "mallory")

	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Rent", 80000, testutil.Date(2024, 3, 1))
	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Food", 1999, testutil.Date(2024, 3, 2))
	testutil.CreateTransaction(t, db, u.ID, models.KindIncome, "Salary", 50000, testutil.Date(2024, 3, 3))
	testutil.CreateTransaction(t, db, other.ID, models.KindIncome, "Salary", 7777700, testutil.Date(2024, 3, 3))

	s, err := report.Summarize(db, u.ID, query.DateRange{})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if s.IncomeCents != 50000 || s.ExpenseCents != 81999 {
		t.Errorf("totals = %d/%d, want 50000/81999", s.IncomeCents, s.ExpenseCents)
	}
	if s.BalanceCents() != s.IncomeCents-s.ExpenseCents || s.BalanceCents() != -31999 {
		t.Errorf("balance = %d, want -31999", s.BalanceCents())
	}
	if s.TransactionCount() != s.IncomeCount+s.ExpenseCount || s.TransactionCount() != 3 {
		t.Errorf("count = %d, want 3", s.TransactionCount())
	}
	if got := s.Resp().Balance; got != -319.99 {
		t.Errorf("Resp().Balance = %v, want -319.99", got)
	}
}

func TestExpenseByCategory(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "dave")
	other := testutil.CreateUser(t, db, "erin")

	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Food", 1000, testutil.Date(2024, 1, 2))
	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Food", 1500, testutil.Date(2024, 1, 3))
	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Rent", 50000, testutil.Date(2024, 1, 1))
	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Books", 2500, testutil.Date(2024, 1, 4))
	testutil.CreateTransaction(t, db, u.ID, models.KindIncome, "Salary", 900000, testutil.Date(2024, 1, 1))
	testutil.CreateTransaction(t, db, u.ID, models.KindExpense, "Travel", 99999, testutil.Date(2024, 6, 1))
	testutil.CreateTransaction(t, db, other.ID, models.KindExpense, "Food", 123456, testutil.Date(2024, 1, 2))

	got, err := report.ExpenseByCategory(db, u.ID, dateRange(t, "2024-01-01", "2024-01-31"))
	if err != nil {
		t.Fatalf("ExpenseByCategory() error = %v", err)
	}

	want := []report.CategoryTotal{
		{Category: "Rent", TotalCents: 50000, Count: 1},
		{Category: "Books", TotalCents: 2500, Count: 1},
		{Category: "Food", TotalCents: 2500, Count: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d rows %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].TotalCents > got[i-1].TotalCents {
			t.Errorf("rows not sorted by total desc: %+v", got)
		}
	}

	if r := got[0].Resp(); r.Category != "Rent" || r.Total != 500 || r.Count != 1 {
		t.Errorf("Resp() = %+v", r)
	}
}

func TestExpenseByCategory_NoExpenses(t *testing.T) {
	db := testutil.NewDB(t)
	u := testutil.CreateUser(t, db, "frank")
	testutil.CreateTransaction(t, db, u.ID, models.KindIncome, "Salary", 100, testutil.Date(2024, 1, 1))

	got, err := report.ExpenseByCategory(db, u.ID, query.DateRange{})
	if err != nil {
		t.Fatalf("ExpenseByCategory() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}
