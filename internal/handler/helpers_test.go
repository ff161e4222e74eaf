package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"expense-tracker/internal/handler"
	"expense-tracker/internal/models"
	"expense-tracker/internal/query"
	"expense-tracker/internal/testutil"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const userHeader = "X-Test-User"

var testPaging = query.Paging{DefaultLimit: 10, MaxLimit: 100}

// asHeaderUser stands in for the auth middleware: the caller is the user
// whose id is in X-Test-User.
func asHeaderUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.GetHeader(userHeader), 10, 64)
		if err != nil {
			c.Next()
			return
		}
		var user models.User
		if err := db.First(&user, uint(id)).Error; err != nil {
			c.Next()
			return
		}
		c.Set(util.ContextUserKey, &user)
		c.Set(util.ContextUserIDKey, user.ID)
		c.Next()
	}
}

func newEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	r := gin.New()
	r.Use(asHeaderUser(db))

	tx := handler.NewTransactionHandler(db, testPaging)
	r.GET("/api/transactions", tx.ListTransactions)
	r.GET("/api/transactions/stats", tx.GetStats)
	r.GET("/api/transactions/categories", tx.GetCategories)
	r.GET("/api/transactions/:id", tx.GetTransaction)
	r.POST("/api/transactions", tx.CreateTransaction)
	r.PUT("/api/transactions/:id", tx.UpdateTransaction)
	r.DELETE("/api/transactions/:id", tx.DeleteTransaction)

	exp := handler.NewExportHandler(db, testPaging)
	r.GET("/api/export/csv", exp.ExportCSV)
	r.GET("/api/export/xlsx", exp.ExportXLSX)

	logs := handler.NewLogHandler(db, testPaging)
	r.GET("/api/logs", logs.ListLogs)

	health := handler.NewHealthHandler(db)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)

	return r, db
}

// do sends body (marshalled unless it is already a string) as user.
func do(t *testing.T, r http.Handler, method, path string, user *models.User, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set(userHeader, strconv.FormatUint(uint64(user.ID), 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

type txJSON struct {
	ID        uint    `json:"id"`
	User      uint    `json:"user"`
	Type      string  `json:"type"`
	Category  string  `json:"category"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Note      string  `json:"note"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type txEnvelope struct {
	Message     string `json:"message"`
	Transaction txJSON `json:"transaction"`
}

type validationJSON struct {
	Message string            `json:"message"`
	Errors  []util.FieldError `json:"errors"`
}

func hasFieldError(v validationJSON, field string) bool {
	for _, e := range v.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}
