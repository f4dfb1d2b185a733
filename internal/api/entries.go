package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/service"
	"github.com/flarelog/backend/internal/types"
)

// EntryHandler handles health log entry requests
type EntryHandler struct {
	entryService service.IEntryService
	authService  service.IAuthService
}

func NewEntryHandler(entryService service.IEntryService, authService service.IAuthService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		authService:  authService,
	}
}

func (h *EntryHandler) RegisterRoutes(router *gin.RouterGroup) {
	entries := router.Group("/entries")
	entries.Use(middleware.AuthMiddleware(h.authService))
	{
		entries.GET("", h.ListEntries)
		entries.GET("/search", h.SearchEntries)
		entries.GET("/:id", h.GetEntry)
		entries.POST("", h.CreateEntry)
		entries.PUT("/:id", h.UpdateEntry)
		entries.DELETE("/:id", h.DeleteEntry)
		entries.POST("/:id/follow-ups", h.AppendFollowUp)
	}
}

func (h *EntryHandler) CreateEntry(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req types.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, engagement, newBadges, err := h.entryService.CreateEntry(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEntryType),
			errors.Is(err, service.ErrSeverityNotAllowed),
			errors.Is(err, service.ErrEnergyNotAllowed):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create entry"})
		}
		return
	}

	badges := make([]gin.H, 0, len(newBadges))
	for _, b := range newBadges {
		badges = append(badges, gin.H{"id": b.ID, "name": b.Name, "description": b.Description})
	}

	c.JSON(http.StatusCreated, gin.H{
		"entry":      entry,
		"engagement": engagement,
		"new_badges": badges,
	})
}

func (h *EntryHandler) GetEntry(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	entry, err := h.entryService.GetEntry(c.Request.Context(), userID, id)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get entry"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req types.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.entryService.UpdateEntry(c.Request.Context(), userID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		case errors.Is(err, service.ErrSeverityNotAllowed),
			errors.Is(err, service.ErrEnergyNotAllowed):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update entry"})
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.entryService.DeleteEntry(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete entry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "entry deleted successfully",
		"id":      id,
	})
}

func (h *EntryHandler) AppendFollowUp(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req types.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.entryService.AppendFollowUp(c.Request.Context(), userID, id, req.Note)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add follow-up"})
		return
	}

	c.JSON(http.StatusOK, entry)
}

func (h *EntryHandler) ListEntries(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var from, to time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'from' timestamp"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'to' timestamp"})
			return
		}
		to = t
	}

	entries, err := h.entryService.ListEntries(c.Request.Context(), userID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *EntryHandler) SearchEntries(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	entries, err := h.entryService.SearchEntries(c.Request.Context(), userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
