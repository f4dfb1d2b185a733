package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/service"
	"github.com/flarelog/backend/internal/types"
)

// ClassifyHandler turns free-text descriptions into entry drafts
type ClassifyHandler struct {
	classifier  service.IClassifierService
	authService service.IAuthService
	rateLimiter *middleware.RateLimiter
}

func NewClassifyHandler(classifier service.IClassifierService, authService service.IAuthService, rateLimiter *middleware.RateLimiter) *ClassifyHandler {
	return &ClassifyHandler{
		classifier:  classifier,
		authService: authService,
		rateLimiter: rateLimiter,
	}
}

func (h *ClassifyHandler) RegisterRoutes(router *gin.RouterGroup) {
	classify := router.Group("/classify")
	classify.Use(middleware.AuthMiddleware(h.authService))
	if h.rateLimiter != nil {
		classify.Use(h.rateLimiter.RateLimitMiddleware())
	}
	{
		classify.POST("", h.Classify)
		classify.GET("/drafts/:id", h.GetDraft)
		classify.DELETE("/drafts/:id", h.DeleteDraft)
	}
}

// Classify parses free text into a structured entry draft. A model
// failure still returns a usable draft with only the note filled in.
func (h *ClassifyHandler) Classify(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	var req types.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.classifier.ClassifyEntry(c.Request.Context(), req.Text)
	if err != nil {
		log.Printf("[ClassifyHandler] Classification failed, returning unclassified draft: %v", err)
		draft = service.UnclassifiedDraft(req.Text)
	}
	draft.UserID = userID.String()

	if err := h.classifier.SaveDraft(c.Request.Context(), draft); err != nil {
		log.Printf("[ClassifyHandler] Failed to save draft: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (h *ClassifyHandler) GetDraft(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	draft, err := h.classifier.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}
	if draft.UserID != userID.String() {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

func (h *ClassifyHandler) DeleteDraft(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	draft, err := h.classifier.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil || draft.UserID != userID.String() {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}

	if err := h.classifier.DeleteDraft(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete draft"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "draft deleted successfully"})
}
