package router

import (
	"github.com/gin-gonic/gin"

	"taxlink/internal/config"
	"taxlink/internal/handler"
	"taxlink/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	authCfg config.AuthConfig,
	invoiceH *handler.InvoiceHandler,
	bulkH *handler.BulkHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authCfg))

	// Invoice lifecycle
	invoices := protected.Group("/invoices")
	invoices.POST("", invoiceH.Create)
	invoices.GET("", invoiceH.List)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.PUT("/:id", invoiceH.Update)
	invoices.POST("/:id/save", invoiceH.Save)
	invoices.POST("/:id/submit", invoiceH.Submit)

	// Bulk ingestion
	invoices.POST("/bulk", bulkH.Ingest)
	invoices.POST("/bulk/validate", bulkH.Validate)

	return r
}
