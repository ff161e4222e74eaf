package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/query"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var exportHeaders = []string{"Date", "Type", "Category", "Amount", "Note"}

const exportSheet = "Transactions"

// ExportHandler streams the caller's transactions as CSV or XLSX.
type ExportHandler struct {
	DB     *gorm.DB
	Paging query.Paging
}

func NewExportHandler(db *gorm.DB, paging query.Paging) *ExportHandler {
	return &ExportHandler{
		DB:     db,
		Paging: paging,
	}
}

// loadForExport applies the list filters without paging, newest first.
func (h *ExportHandler) loadForExport(c *gin.Context) ([]models.Transaction, bool) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return nil, false
	}

	f, errs := query.ParseTransactionFilter(c.Request.URL.Query(), h.Paging)
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return nil, false
	}

	var txs []models.Transaction
	if err := f.Scope(h.DB.WithContext(c.Request.Context()), user.ID).
		Order(query.NewestFirst).
		Find(&txs).Error; err != nil {
		util.ServerError(c, "load transactions for export", err)
		return nil, false
	}
	return txs, true
}

func exportRow(t *models.Transaction) []string {
	return []string{
		t.OccurredAt.UTC().Format("2006-01-02"),
		t.Type,
		t.Category,
		util.FormatCents(t.AmountCents),
		t.Note,
	}
}

func attachment(c *gin.Context, ext string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.%s\"",
		time.Now().UTC().Format("20060102"), ext))
}

// ExportCSV writes the filtered transactions as CSV.
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	txs, ok := h.loadForExport(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	attachment(c, "csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(exportHeaders)
	for i := range txs {
		_ = w.Write(exportRow(&txs[i]))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		// headers are already out; nothing left to tell the client
		c.Error(err)
	}
}

// ExportXLSX writes the filtered transactions as a single-sheet workbook.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	txs, ok := h.loadForExport(c)
	if !ok {
		return
	}

	f, err := buildWorkbook(txs)
	if err != nil {
		util.ServerError(c, "build workbook", err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	attachment(c, "xlsx")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		c.Error(err)
	}
}

func buildWorkbook(txs []models.Transaction) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}

	for i, title := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, title); err != nil {
			f.Close()
			return nil, err
		}
	}

	for idx := range txs {
		t := &txs[idx]
		row := idx + 2
		values := []any{
			t.OccurredAt.UTC().Format("2006-01-02"),
			t.Type,
			t.Category,
			util.CentsToFloat(t.AmountCents),
			t.Note,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	f.SetColWidth(exportSheet, "A", "A", 12)
	f.SetColWidth(exportSheet, "B", "B", 10)
	f.SetColWidth(exportSheet, "C", "C", 18)
	f.SetColWidth(exportSheet, "D", "D", 12)
	f.SetColWidth(exportSheet, "E", "E", 40)

	return f, nil
}
