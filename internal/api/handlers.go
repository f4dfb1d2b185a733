package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/flarelog/backend/config"
	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/service"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Flarelog API is running",
		"version": "v1.0.0",
	})
}

// Deps bundles the collaborators the route table needs.
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Auth       service.IAuthService
	Email      service.IEmailService
	Entries    service.IEntryService
	Engagement service.IEngagementService
	Reports    service.IReportService
	Classifier service.IClassifierService
	Export     service.IExportService
	S3         *config.S3Config
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Deps) {
	// Health check endpoint (no auth required)
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	// Rate limiters degrade to no-ops when Redis is down
	var classifyLimiter *middleware.RateLimiter
	var shareLimiter *middleware.RateLimiter
	if deps.Redis != nil {
		classifyLimiter = middleware.NewClassificationRateLimiter(deps.Redis)
		shareLimiter = middleware.NewShareRateLimiter(deps.Redis)
	}

	authHandler := NewAuthHandler(deps.Auth, deps.Email, deps.DB)
	entryHandler := NewEntryHandler(deps.Entries, deps.Auth)
	reportHandler := NewReportHandler(deps.Reports, deps.Auth)
	engagementHandler := NewEngagementHandler(deps.Engagement, deps.Auth)
	dashboardHandler := NewDashboardHandler(deps.DB, deps.Auth, deps.Engagement)
	shareHandler := NewShareHandler(deps.DB, deps.Auth, deps.Reports, deps.Entries, deps.Export, deps.Email, shareLimiter)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	entryHandler.RegisterRoutes(v1)
	reportHandler.RegisterRoutes(v1)
	engagementHandler.RegisterRoutes(v1)
	dashboardHandler.RegisterRoutes(v1)
	shareHandler.RegisterRoutes(v1)

	if deps.Classifier != nil {
		classifyHandler := NewClassifyHandler(deps.Classifier, deps.Auth, classifyLimiter)
		classifyHandler.RegisterRoutes(v1)
	}
}
