package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/service"
)

// ReportHandler handles weekly report requests
type ReportHandler struct {
	reportService service.IReportService
	authService   service.IAuthService
}

func NewReportHandler(reportService service.IReportService, authService service.IAuthService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		authService:   authService,
	}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	reports.Use(middleware.AuthMiddleware(h.authService))
	{
		reports.GET("", h.ListReports)
		reports.GET("/correlations", h.GetCorrelations)
		reports.GET("/:week", h.GetReport)
		reports.POST("/:week/compute", h.ComputeReport)
	}
}

// parseWeek accepts a YYYY-MM-DD date anywhere in the target week.
func parseWeek(c *gin.Context) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", c.Param("week"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week date, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

func (h *ReportHandler) ComputeReport(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	day, ok := parseWeek(c)
	if !ok {
		return
	}

	report, err := h.reportService.ComputeWeek(c.Request.Context(), userID, day)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	day, ok := parseWeek(c)
	if !ok {
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), userID, day)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	reports, err := h.reportService.ListReports(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *ReportHandler) GetCorrelations(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	correlations, err := h.reportService.Correlations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute correlations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"correlations": correlations})
}
