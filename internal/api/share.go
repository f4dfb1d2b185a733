package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flarelog/backend/internal/middleware"
	"github.com/flarelog/backend/internal/models"
	"github.com/flarelog/backend/internal/service"
)

// ShareHandler exports weekly reports for clinicians
type ShareHandler struct {
	db            *gorm.DB
	authService   service.IAuthService
	reportService service.IReportService
	entryService  service.IEntryService
	exportService service.IExportService
	emailService  service.IEmailService
	rateLimiter   *middleware.RateLimiter
}

func NewShareHandler(db *gorm.DB, authService service.IAuthService, reportService service.IReportService, entryService service.IEntryService, exportService service.IExportService, emailService service.IEmailService, rateLimiter *middleware.RateLimiter) *ShareHandler {
	return &ShareHandler{
		db:            db,
		authService:   authService,
		reportService: reportService,
		entryService:  entryService,
		exportService: exportService,
		emailService:  emailService,
		rateLimiter:   rateLimiter,
	}
}

func (h *ShareHandler) RegisterRoutes(router *gin.RouterGroup) {
	share := router.Group("/reports/:week/share")
	share.Use(middleware.AuthMiddleware(h.authService))
	// Outbound medical data requires a verified sender address
	share.Use(middleware.RequireEmailVerification(h.db))
	if h.rateLimiter != nil {
		share.Use(h.rateLimiter.RateLimitMiddleware())
	}
	{
		share.POST("", h.ShareReport)
	}
}

// ShareReport uploads the report export and, when a clinician email is
// on file, mails them the link.
func (h *ShareHandler) ShareReport(c *gin.Context) {
	userID := c.MustGet("user_id").(uuid.UUID)

	day, ok := parseWeek(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	report, err := h.reportService.GetReport(c.Request.Context(), userID, day)
	if err != nil {
		if errors.Is(err, service.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found, compute it first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	// WeekEnd is the last day of the week, not an exclusive bound, so
	// the listing window runs through the end of that day.
	entries, err := h.entryService.ListEntries(c.Request.Context(), userID, report.WeekStart, report.WeekStart.AddDate(0, 0, 7))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load entries"})
		return
	}

	url, err := h.exportService.ShareReport(c.Request.Context(), user, report, entries)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export report"})
		return
	}

	clinicianNotified := false
	var profile models.UserProfile
	if err := h.db.Where("user_id = ?", userID).First(&profile).Error; err == nil && profile.ClinicianEmail != "" {
		clinicianEmail := profile.ClinicianEmail
		subject := fmt.Sprintf("Shared health report for %s", user.Name)
		body := fmt.Sprintf("<p>%s has shared a weekly health report with you.</p><p><a href=\"%s\">Open the report</a> (link expires in 7 days).</p>", user.Name, url)
		if err := h.emailService.SendEmail(clinicianEmail, subject, body); err != nil {
			log.Printf("[ShareHandler] Failed to email clinician: %v", err)
		} else {
			clinicianNotified = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"url":                url,
		"clinician_notified": clinicianNotified,
	})
}
