package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/query"
	"expense-tracker/internal/report"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const msgTransactionNotFound = "Transaction not found"

// TransactionHandler serves /api/transactions.
type TransactionHandler struct {
	DB     *gorm.DB
	Paging query.Paging
}

func NewTransactionHandler(db *gorm.DB, paging query.Paging) *TransactionHandler {
	return &TransactionHandler{
		DB:     db,
		Paging: paging,
	}
}

// ---------- request / response ----------

type createTransactionReq struct {
	Type     string       `json:"type" validate:"required,oneof=income expense"`
	Category string       `json:"category" validate:"min=1,max=30"`
	Amount   *util.Amount `json:"amount" validate:"required,gt=0,lt=1000000000000"`
	Date     *string      `json:"date" validate:"omitnil,isodate"`
	Note     *string      `json:"note" validate:"omitnil,max=100"`
}

// updateTransactionReq: nil means "not supplied", so JSON null leaves a
// field unchanged.
type updateTransactionReq struct {
	Type     *string      `json:"type" validate:"omitnil,oneof=income expense"`
	Category *string      `json:"category" validate:"omitnil,min=1,max=30"`
	Amount   *util.Amount `json:"amount" validate:"omitnil,gt=0,lt=1000000000000"`
	Date     *string      `json:"date" validate:"omitnil,isodate"`
	Note     *string      `json:"note" validate:"omitnil,max=100"`
}

type transactionResp struct {
	ID        uint      `json:"id"`
	User      uint      `json:"user"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:        t.ID,
		User:      t.UserID,
		Type:      t.Type,
		Category:  t.Category,
		Amount:    util.CentsToFloat(t.AmountCents),
		Date:      t.OccurredAt,
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// parseDateField converts a validated date field; nil means now.
func parseDateField(s *string) time.Time {
	if s == nil {
		return time.Now().UTC()
	}
	t, _, err := util.ParseDate(*s)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// parseID reads :id. Ids that cannot exist are reported as not found.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.Error(c, http.StatusNotFound, msgTransactionNotFound)
		return 0, false
	}
	return uint(id), true
}

func currentUserOrAbort(c *gin.Context) (*models.User, bool) {
	user, ok := util.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.MsgUnauthorized)
		return nil, false
	}
	return user, true
}

// ---------- list ----------

// ListTransactions returns one page of the caller's transactions, newest first.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}

	f, errs := query.ParseTransactionFilter(c.Request.URL.Query(), h.Paging)
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	page, err := query.List(h.DB.WithContext(c.Request.Context()), user.ID, f)
	if err != nil {
		util.ServerError(c, "list transactions", err)
		return
	}

	items := make([]transactionResp, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, toTransactionResp(&page.Items[i]))
	}

	util.Success(c, http.StatusOK, gin.H{
		"transactions": items,
		"totalPages":   page.TotalPages,
		"currentPage":  f.Page,
		"total":        page.Total,
	})
}

// ---------- reports ----------

// GetStats returns income/expense totals for an optional date range.
func (h *TransactionHandler) GetStats(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}

	r, errs := query.ParseDateRange(c.Request.URL.Query())
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	summary, err := report.Summarize(h.DB.WithContext(c.Request.Context()), user.ID, r)
	if err != nil {
		util.ServerError(c, "get stats", err)
		return
	}

	util.Success(c, http.StatusOK, summary.Resp())
}

// GetCategories returns the expense breakdown per category.
func (h *TransactionHandler) GetCategories(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}

	r, errs := query.ParseDateRange(c.Request.URL.Query())
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	totals, err := report.ExpenseByCategory(h.DB.WithContext(c.Request.Context()), user.ID, r)
	if err != nil {
		util.ServerError(c, "get categories", err)
		return
	}

	out := make([]report.CategoryResp, 0, len(totals))
	for _, t := range totals {
		out = append(out, t.Resp())
	}
	util.Success(c, http.StatusOK, out)
}

// ---------- read one ----------

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	tx, ok := h.findOwned(c, id, user.ID)
	if !ok {
		return
	}

	util.Success(c, http.StatusOK, gin.H{
		"transaction": toTransactionResp(tx),
	})
}

// findOwned loads id for ownerID, writing 404/500 itself on failure.
func (h *TransactionHandler) findOwned(c *gin.Context, id, ownerID uint) (*models.Transaction, bool) {
	var tx models.Transaction
	err := h.DB.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.Error(c, http.StatusNotFound, msgTransactionNotFound)
		} else {
			util.ServerError(c, "find transaction", err)
		}
		return nil, false
	}
	return &tx, true
}

// ---------- create ----------

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}

	var req createTransactionReq
	if errs := util.BindJSON(c, &req); errs != nil {
		util.ValidationError(c, errs)
		return
	}
	req.Category = strings.TrimSpace(req.Category)
	trimPtr(req.Note)
	if errs := util.ValidateStruct(&req); errs != nil {
		util.ValidationError(c, errs)
		return
	}

	tx := models.Transaction{
		UserID:      user.ID,
		Type:        req.Type,
		Category:    req.Category,
		AmountCents: util.ToCents(req.Amount.Decimal),
		OccurredAt:  parseDateField(req.Date),
	}
	if req.Note != nil {
		tx.Note = *req.Note
	}

	if err := h.DB.WithContext(c.Request.Context()).Create(&tx).Error; err != nil {
		util.ServerError(c, "create transaction", err)
		return
	}

	util.Success(c, http.StatusCreated, gin.H{
		"message":     "Transaction created successfully",
		"transaction": toTransactionResp(&tx),
	})
}

// ---------- update ----------

// UpdateTransaction applies the supplied fields to one of the caller's
// transactions. Concurrent updates are last-write-wins.
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateTransactionReq
	if errs := util.BindJSON(c, &req); errs != nil {
		util.ValidationError(c, errs)
		return
	}
	trimPtr(req.Category)
	trimPtr(req.Note)
	if errs := util.ValidateStruct(&req); errs != nil {
		util.ValidationError(c, errs)
		return
	}

	tx, ok := h.findOwned(c, id, user.ID)
	if !ok {
		return
	}

	if req.Type != nil {
		tx.Type = *req.Type
	}
	if req.Category != nil {
		tx.Category = *req.Category
	}
	if req.Amount != nil {
		tx.AmountCents = util.ToCents(req.Amount.Decimal)
	}
	if req.Date != nil {
		tx.OccurredAt = parseDateField(req.Date)
	}
	if req.Note != nil {
		tx.Note = *req.Note
	}

	if err := h.DB.WithContext(c.Request.Context()).Save(tx).Error; err != nil {
		util.ServerError(c, "update transaction", err)
		return
	}

	util.Success(c, http.StatusOK, gin.H{
		"message":     "Transaction updated successfully",
		"transaction": toTransactionResp(tx),
	})
}

// ---------- delete ----------

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	// only the owner's record can match
	res := h.DB.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", id, user.ID).
		Delete(&models.Transaction{})
	if res.Error != nil {
		util.ServerError(c, "delete transaction", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, msgTransactionNotFound)
		return
	}

	util.Success(c, http.StatusOK, gin.H{
		"message": "Transaction deleted successfully",
	})
}
