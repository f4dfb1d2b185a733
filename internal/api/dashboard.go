package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/models"
	"github.com/flarelog/backend/internal/service"
)

// DashboardHandler handles dashboard-related requests
type DashboardHandler struct {
	db                *gorm.DB
	authService       service.IAuthService
	engagementService service.IEngagementService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(db *gorm.DB, authService service.IAuthService, engagementService service.IEngagementService) *DashboardHandler {
	return &DashboardHandler{
		db:                db,
		authService:       authService,
		engagementService: engagementService,
	}
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/dashboard")
	dashboard.Use(middleware.AuthMiddleware(h.authService))
	{
		dashboard.GET("/stats", h.GetStats)
		dashboard.GET("/recent", h.GetRecentEntries)
	}
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	EntriesThisWeek int  `json:"entries_this_week"`
	FlaresThisWeek  int  `json:"flares_this_week"`
	CurrentStreak   int  `json:"current_streak"`
	TotalLogs       int  `json:"total_logs"`
	LatestScore     *int `json:"latest_score"`
}

// GetStats returns dashboard statistics for the current user
func (h *DashboardHandler) GetStats(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	weekStart, weekEnd := service.WeekBounds(time.Now().UTC(), time.UTC)

	var entriesThisWeek int64
	if err := h.db.Model(&models.Entry{}).
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, weekStart, weekEnd).
		Count(&entriesThisWeek).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	var flaresThisWeek int64
	if err := h.db.Model(&models.Entry{}).
		Where("user_id = ? AND type = ? AND timestamp >= ? AND timestamp < ?", userID, models.EntryTypeFlare, weekStart, weekEnd).
		Count(&flaresThisWeek).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	engagement, err := h.engagementService.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	stats := DashboardStats{
		EntriesThisWeek: int(entriesThisWeek),
		FlaresThisWeek:  int(flaresThisWeek),
		CurrentStreak:   engagement.CurrentStreak,
		TotalLogs:       engagement.TotalLogs,
	}

	var latest models.WeeklyReport
	if err := h.db.Where("user_id = ?", userID).
		Order("week_start DESC").First(&latest).Error; err == nil {
		score := latest.HealthScore
		stats.LatestScore = &score
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentEntries returns the user's most recent entries
func (h *DashboardHandler) GetRecentEntries(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var entries []models.Entry
	if err := h.db.Where("user_id = ?", userID).
		Order("timestamp DESC").Limit(10).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recent entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
