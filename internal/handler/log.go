package handler

import (
	"net/http"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/query"
	"expense-tracker/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LogHandler serves the caller's audit trail.
type LogHandler struct {
	DB     *gorm.DB
	Paging query.Paging
}

func NewLogHandler(db *gorm.DB, paging query.Paging) *LogHandler {
	return &LogHandler{
		DB:     db,
		Paging: paging,
	}
}

type logResp struct {
	ID        uint      `json:"id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListLogs returns one page of the caller's audit entries, newest first.
func (h *LogHandler) ListLogs(c *gin.Context) {
	user, ok := currentUserOrAbort(c)
	if !ok {
		return
	}

	page, limit, errs := query.ParsePage(c.Request.URL.Query(), h.Paging)
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	base := h.DB.WithContext(c.Request.Context()).
		Model(&models.AuditLog{}).
		Where("user_id = ?", user.ID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		util.ServerError(c, "count logs", err)
		return
	}

	var logs []models.AuditLog
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error; err != nil {
		util.ServerError(c, "list logs", err)
		return
	}

	items := make([]logResp, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		items = append(items, logResp{
			ID:        l.ID,
			Method:    l.Method,
			Path:      l.Path,
			Status:    l.Status,
			IP:        l.IP,
			UserAgent: l.UserAgent,
			CreatedAt: l.CreatedAt,
		})
	}

	util.Success(c, http.StatusOK, gin.H{
		"logs":        items,
		"totalPages":  query.TotalPages(total, limit),
		"currentPage": page,
		"total":       total,
	})
}
