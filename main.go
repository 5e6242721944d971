package main

import (
	"log"
	"net/http"

	controller "github.com/sahilk21/RegLink/controller"
	"github.com/sahilk21/RegLink/initializers"
	middleware "github.com/sahilk21/RegLink/middleware"
	service "github.com/sahilk21/RegLink/service"

	"github.com/gin-gonic/gin"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("[WARN] No .env file loaded: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	filingService, err := service.NewFilingService(initializers.DB)
	if err != nil {
		log.Fatalf("Failed to initialize filing service: %s", err)
	}

	filingController := controller.NewFilingController(filingService)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.CallerIdentity())

	// Global rate limiter for most routes
	router.Use(middleware.GlobalRateLimiter.Limit())

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Registry endpoints for entities and filings
	router.POST("/entities",
		middleware.RequireRoles("regulator", "admin"),
		filingController.CreateEntity)
	router.POST("/filings",
		middleware.RequireRoles("compliance_officer", "regulator", "admin"),
		filingController.CreateFiling)

	// Compliance evaluation and flag lifecycle
	router.POST("/compliance/evaluate",
		middleware.StrictRateLimiter.Limit(),
		middleware.RequireRoles("compliance_officer", "regulator", "admin"),
		filingController.EvaluateCompliance)
	router.GET("/entities/:id/compliance", filingController.GetEntityComplianceHistory)
	router.PUT("/flags/:id/status",
		middleware.StrictRateLimiter.Limit(),
		middleware.RequireRoles("regulator", "admin"),
		filingController.UpdateFlagStatus)
	router.GET("/flags/search", filingController.SearchFlags)

	// Filing distribution fan-out
	router.POST("/filings/:id/distribute",
		middleware.StrictRateLimiter.Limit(),
		middleware.RequireRoles("compliance_officer", "regulator", "admin"),
		filingController.DistributeFiling)
	router.GET("/filings/:id/distributions", filingController.GetFilingDistributions)

	// Cross-agency workflows
	router.POST("/workflows",
		middleware.StrictRateLimiter.Limit(),
		middleware.RequireRoles("regulator", "admin"),
		filingController.StartWorkflow)
	router.GET("/workflows/:id", filingController.GetWorkflow)
	router.PUT("/workflows/:id/stages/:stageId/complete",
		middleware.StrictRateLimiter.Limit(),
		middleware.RequireRoles("regulator", "admin"),
		filingController.CompleteStage)
	router.POST("/workflows/:id/cancel",
		middleware.StrictRateLimiter.Limit(),
		middleware.RequireRoles("regulator", "admin"),
		filingController.CancelWorkflow)

	// Agency dashboards and notifications
	router.GET("/agencies/:agency/dashboard", filingController.GetAgencyDashboard)
	router.GET("/agencies/:agency/coordination", filingController.GetAgencyCoordinationDashboard)
	router.PUT("/notifications/:id/read",
		middleware.RequireRoles("regulator", "admin"),
		filingController.MarkNotificationRead)

	router.Run(":8080")
}
