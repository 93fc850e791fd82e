// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"prorab/internal/core/appstate"
	"prorab/internal/core/numerator"
	"prorab/internal/domain/audit"
	"prorab/internal/domain/billing"
	"prorab/internal/domain/catalogs/material"
	"prorab/internal/domain/catalogs/supplier"
	"prorab/internal/domain/changeorders"
	"prorab/internal/domain/expenses"
	"prorab/internal/domain/financials"
	"prorab/internal/domain/inventory"
	"prorab/internal/domain/projects"
	"prorab/internal/infrastructure/http/v1/handlers"
	"prorab/internal/infrastructure/http/v1/middleware"
	"prorab/internal/infrastructure/storage/postgres"
	"prorab/internal/infrastructure/storage/postgres/catalog_repo"
	"prorab/internal/infrastructure/storage/postgres/document_repo"
	"prorab/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager drives transactions for all repositories
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Numerator for document number generation
	Numerator numerator.Generator

	// Audit records entity changes
	Audit audit.Recorder

	// State caches cross-request snapshots (project lookup)
	State *appstate.State
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.JWTValidator))

	registerRoutes(v1, cfg)

	return router
}

func registerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()

	// Repositories share one TxManager; services compose repositories.
	materialRepo := catalog_repo.NewMaterialRepo(cfg.TxManager)
	supplierRepo := catalog_repo.NewSupplierMaterialRepo(cfg.TxManager)
	projectRepo := catalog_repo.NewProjectRepo(cfg.TxManager)
	expenseRepo := document_repo.NewExpenseRepo(cfg.TxManager)
	issueRepo := document_repo.NewMaterialIssueRepo(cfg.TxManager)
	changeOrderRepo := document_repo.NewChangeOrderRepo(cfg.TxManager)
	invoiceRepo := document_repo.NewInvoiceRepo(cfg.TxManager)

	materialService := material.NewService(materialRepo, cfg.Numerator)
	supplierService := supplier.NewService(supplierRepo, cfg.Numerator)
	projectService := projects.NewService(projectRepo, cfg.Numerator)
	expenseService := expenses.NewService(expenseRepo, cfg.TxManager, cfg.Numerator, cfg.Audit)
	inventoryService := inventory.NewService(issueRepo, materialRepo, cfg.TxManager, cfg.Numerator, cfg.Audit)
	changeOrderService := changeorders.NewService(changeOrderRepo, cfg.TxManager, cfg.Numerator, cfg.Audit)
	billingService := billing.NewService(
		invoiceRepo, projectRepo, expenseRepo, issueRepo, changeOrderRepo,
		cfg.TxManager, cfg.Numerator, cfg.Audit,
	)
	financialsService := financials.NewService(projectRepo, expenseRepo, issueRepo, changeOrderRepo)

	// --- MATERIALS (workshop stock) ---
	{
		h := handlers.NewMaterialHandler(base, materialService)
		g := rg.Group("/materials")
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.POST("/:id/deletion-mark", h.SetDeletionMark)
	}

	// --- SUPPLIER PRICE LIST ---
	{
		h := handlers.NewSupplierHandler(base, supplierService)
		g := rg.Group("/supplier-materials")
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.POST("/:id/deletion-mark", h.SetDeletionMark)
	}

	// --- PROJECTS ---
	projectHandler := handlers.NewProjectHandler(base, projectService, financialsService, cfg.State)
	invoiceHandler := handlers.NewInvoiceHandler(base, billingService)
	{
		g := rg.Group("/projects")
		g.GET("", projectHandler.List)
		g.GET("/lookup", projectHandler.Lookup)
		g.GET("/:id", projectHandler.Get)
		g.POST("", projectHandler.Create)
		g.PUT("/:id", projectHandler.Update)
		g.POST("/:id/archive", projectHandler.SetArchived)
		g.POST("/:id/deletion-mark", projectHandler.SetDeletionMark)
		g.GET("/:id/financials", projectHandler.Financials)
		g.GET("/:id/unbilled", invoiceHandler.ListUnbilled)
	}

	// --- EXPENSES ---
	{
		h := handlers.NewExpenseHandler(base, expenseService)
		g := rg.Group("/expenses")
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.POST("/:id/unused", h.RecordUnused)
		g.POST("/:id/deletion-mark", h.SetDeletionMark)
	}

	// --- INVENTORY LEDGER ---
	{
		h := handlers.NewInventoryHandler(base, inventoryService)
		g := rg.Group("/issues")
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Issue)
		g.POST("/:id/return", h.Return)
		g.POST("/:id/unused", h.RecordUnused)

		rg.GET("/movements", h.Movements)
	}

	// --- CHANGE ORDERS ---
	{
		h := handlers.NewChangeOrderHandler(base, changeOrderService)
		g := rg.Group("/change-orders")
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.POST("/:id/status", h.SetStatus)
		g.POST("/:id/deletion-mark", h.SetDeletionMark)
	}

	// --- INVOICES ---
	{
		g := rg.Group("/invoices")
		g.GET("", invoiceHandler.List)
		g.GET("/:id", invoiceHandler.Get)
		g.POST("", invoiceHandler.Create)
		g.POST("/:id/status", invoiceHandler.SetStatus)
	}
}
