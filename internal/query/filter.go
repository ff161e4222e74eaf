// Package query turns list/report request parameters into owner-scoped
// gorm predicates over the transactions table.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/util"

	"gorm.io/gorm"
)

// DateRange bounds occurred_at. Nil bounds are open.
type DateRange struct {
	Start *time.Time // inclusive
	End   *time.Time // exclusive when EndExclusive is set, inclusive otherwise

	EndExclusive bool
}

// TransactionFilter is a parsed list request.
type TransactionFilter struct {
	Type     string
	Category string
	Range    DateRange
	Page     int
	Limit    int
}

// Offset is the number of rows skipped before the current page.
func (f TransactionFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Paging holds page size defaults.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// ParseDateRange reads startDate/endDate. A date-only endDate covers the
// whole day.
func ParseDateRange(q url.Values) (DateRange, []util.FieldError) {
	var (
		r    DateRange
		errs []util.FieldError
	)

	if s := q.Get("startDate"); s != "" {
		t, _, err := util.ParseDate(s)
		if err != nil {
			errs = append(errs, util.FieldError{Field: "startDate", Message: "startDate must be a valid ISO 8601 date"})
		} else {
			r.Start = &t
		}
	}
	if s := q.Get("endDate"); s != "" {
		t, dateOnly, err := util.ParseDate(s)
		if err != nil {
			errs = append(errs, util.FieldError{Field: "endDate", Message: "endDate must be a valid ISO 8601 date"})
		} else {
			if dateOnly {
				t = t.AddDate(0, 0, 1)
				r.EndExclusive = true
			}
			r.End = &t
		}
	}

	if r.Start != nil && r.End != nil {
		if r.Start.After(*r.End) || (r.EndExclusive && r.Start.Equal(*r.End)) {
			errs = append(errs, util.FieldError{Field: "endDate", Message: "endDate must not be before startDate"})
		}
	}
	return r, errs
}

// ParseTransactionFilter reads type, category, startDate, endDate, page and
// limit. Absent parameters impose no constraint.
func ParseTransactionFilter(q url.Values, paging Paging) (TransactionFilter, []util.FieldError) {
	var f TransactionFilter

	r, errs := ParseDateRange(q)
	f.Range = r

	if t := q.Get("type"); t != "" {
		if !models.IsValidKind(t) {
			errs = append(errs, util.FieldError{Field: "type", Message: "type must be one of: income, expense"})
		}
		f.Type = t
	}
	f.Category = strings.TrimSpace(q.Get("category"))

	page, limit, pageErrs := ParsePage(q, paging)
	f.Page, f.Limit = page, limit
	errs = append(errs, pageErrs...)
	return f, errs
}

// ParsePage reads page (default 1) and limit (default paging.DefaultLimit,
// at most paging.MaxLimit).
func ParsePage(q url.Values, paging Paging) (page, limit int, errs []util.FieldError) {
	page, limit = 1, paging.DefaultLimit

	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			errs = append(errs, util.FieldError{Field: "page", Message: "page must be a positive integer"})
		} else {
			page = n
		}
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > paging.MaxLimit {
			errs = append(errs, util.FieldError{
				Field:   "limit",
				Message: fmt.Sprintf("limit must be an integer between 1 and %d", paging.MaxLimit),
			})
		} else {
			limit = n
		}
	}
	// the row offset (page-1)*limit must fit in an int
	if limit > 0 && page > math.MaxInt/limit {
		errs = append(errs, util.FieldError{Field: "page", Message: "page is too large"})
		page = 1
	}
	return page, limit, errs
}

// Apply adds the date bounds to db.
func (r DateRange) Apply(db *gorm.DB) *gorm.DB {
	if r.Start != nil {
		db = db.Where("occurred_at >= ?", *r.Start)
	}
	if r.End != nil {
		if r.EndExclusive {
			db = db.Where("occurred_at < ?", *r.End)
		} else {
			db = db.Where("occurred_at <= ?", *r.End)
		}
	}
	return db
}

// Owned scopes the transactions table to one owner.
func Owned(db *gorm.DB, ownerID uint) *gorm.DB {
	return db.Model(&models.Transaction{}).Where("user_id = ?", ownerID)
}

// Scope returns the owner-scoped predicate for f without paging or order.
func (f TransactionFilter) Scope(db *gorm.DB, ownerID uint) *gorm.DB {
	base := f.Range.Apply(Owned(db, ownerID))
	if f.Type != "" {
		base = base.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		base = base.Where("category_key LIKE ? ESCAPE '\\'", "%"+escapeLike(models.CategoryKeyOf(f.Category))+"%")
	}
	return base
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// NewestFirst is the listing order.
const NewestFirst = "occurred_at DESC, id DESC"

// Page is one page of a listing.
type Page struct {
	Items      []models.Transaction
	Total      int64
	TotalPages int
}

// List runs f for ownerID and returns the requested page with totals.
func List(db *gorm.DB, ownerID uint, f TransactionFilter) (*Page, error) {
	base := f.Scope(db, ownerID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	items := make([]models.Transaction, 0, f.Limit)
	if err := base.Session(&gorm.Session{}).
		Order(NewestFirst).
		Limit(f.Limit).
		Offset(f.Offset()).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return &Page{
		Items:      items,
		Total:      total,
		TotalPages: TotalPages(total, f.Limit),
	}, nil
}

// TotalPages is ceil(total / limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
