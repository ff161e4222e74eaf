package router

import (
	"expense-tracker/internal/config"
	"expense-tracker/internal/handler"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/query"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRouter configures the gin engine. limiter may be nil.
func SetupRouter(cfg *config.Config, db *gorm.DB, limiter *middleware.RateLimiter) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	healthHandler := handler.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	paging := query.Paging{
		DefaultLimit: cfg.App.PageSize,
		MaxLimit:     cfg.App.MaxPageSize,
	}

	// ====== API ======
	api := r.Group("/api")
	api.Use(limiter.Middleware())

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.AuditMiddleware(db),
	)

	protected.GET("/auth/me", authHandler.GetMe)
	protected.POST("/auth/logout", authHandler.Logout)
	protected.DELETE("/auth/delete-account", authHandler.DeleteAccount)

	txHandler := handler.NewTransactionHandler(db, paging)
	protected.GET("/transactions", txHandler.ListTransactions)
	protected.GET("/transactions/stats", txHandler.GetStats)
	protected.GET("/transactions/categories", txHandler.GetCategories)
	protected.GET("/transactions/:id", txHandler.GetTransaction)
	protected.POST("/transactions", txHandler.CreateTransaction)
	protected.PUT("/transactions/:id", txHandler.UpdateTransaction)
	protected.DELETE("/transactions/:id", txHandler.DeleteTransaction)

	exportHandler := handler.NewExportHandler(db, paging)
	protected.GET("/export/csv", exportHandler.ExportCSV)
	protected.GET("/export/xlsx", exportHandler.ExportXLSX)

	logHandler := handler.NewLogHandler(db, paging)
	protected.GET("/logs", logHandler.ListLogs)

	return r
}
