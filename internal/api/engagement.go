package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/service"
)

// EngagementHandler exposes streak and badge state
type EngagementHandler struct {
	engagementService service.IEngagementService
	authService       service.IAuthService
}

func NewEngagementHandler(engagementService service.IEngagementService, authService service.IAuthService) *EngagementHandler {
	return &EngagementHandler{
		engagementService: engagementService,
		authService:       authService,
	}
}

func (h *EngagementHandler) RegisterRoutes(router *gin.RouterGroup) {
	engagement := router.Group("/engagement")
	engagement.Use(middleware.AuthMiddleware(h.authService))
	{
		engagement.GET("", h.GetEngagement)
		engagement.GET("/badges", h.GetBadges)
	}
}

func (h *EngagementHandler) GetEngagement(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	engagement, err := h.engagementService.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get engagement"})
		return
	}

	c.JSON(http.StatusOK, engagement)
}

// GetBadges returns the full catalog annotated with earned state.
func (h *EngagementHandler) GetBadges(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	engagement, err := h.engagementService.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get engagement"})
		return
	}

	badges := make([]gin.H, 0, len(service.AllBadges()))
	for _, b := range service.AllBadges() {
		badges = append(badges, gin.H{
			"id":          b.ID,
			"name":        b.Name,
			"description": b.Description,
			"earned":      engagement.HasBadge(b.ID),
		})
	}

	c.JSON(http.StatusOK, gin.H{"badges": badges})
}
