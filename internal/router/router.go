package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ftplog/internal/handler"
	"ftplog/internal/metrics"
	"ftplog/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	logger *zap.Logger,
	collector *metrics.Collector,
	corsOrigins []string,
	healthH *handler.HealthHandler,
	ledgerH *handler.LedgerHandler,
	runH *handler.RunHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(corsOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	v1 := r.Group("/api/v1")

	ledger := v1.Group("/ledger")
	ledger.GET("", ledgerH.List)
	ledger.GET("/entry", ledgerH.Get)
	ledger.GET("/export", ledgerH.Export)
	ledger.POST("/reprocess", ledgerH.Reprocess)

	v1.GET("/summary", ledgerH.Summary)
	v1.POST("/runs", runH.Trigger)

	return r
}
