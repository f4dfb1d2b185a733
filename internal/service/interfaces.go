package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/flarelog/backend/internal/models"
	"github.com/flarelog/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *models.UserProfile, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
	GenerateVerificationToken(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateVerificationToken(ctx context.Context, token string) (*models.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// IEntryService defines the interface for entry CRUD and enrichment
type IEntryService interface {
	CreateEntry(ctx context.Context, userID uuid.UUID, req *types.CreateEntryRequest) (*models.Entry, *models.Engagement, []Badge, error)
	GetEntry(ctx context.Context, userID, id uuid.UUID) (*models.Entry, error)
	UpdateEntry(ctx context.Context, userID, id uuid.UUID, req *types.UpdateEntryRequest) (*models.Entry, error)
	DeleteEntry(ctx context.Context, userID, id uuid.UUID) error
	AppendFollowUp(ctx context.Context, userID, id uuid.UUID, note string) (*models.Entry, error)
	ListEntries(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Entry, error)
	SearchEntries(ctx context.Context, userID uuid.UUID, query string) ([]models.Entry, error)
}

// IEngagementService defines the interface for streak/badge tracking
type IEngagementService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Engagement, error)
	RecordEntry(ctx context.Context, userID uuid.UUID, entry models.Entry, loc *time.Location) (*models.Engagement, []Badge, error)
}

// IReportService defines the interface for weekly report computation
type IReportService interface {
	ComputeWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*models.WeeklyReport, error)
	GetReport(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*models.WeeklyReport, error)
	ListReports(ctx context.Context, userID uuid.UUID) ([]models.WeeklyReport, error)
	Correlations(ctx context.Context, userID uuid.UUID) ([]models.Correlation, error)
}

// IClassifierService turns free text into a partially filled entry
// draft. Implementations may call a live model; callers must treat a
// failure as "unclassified" and fall back to a blank draft.
type IClassifierService interface {
	ClassifyEntry(ctx context.Context, text string) (*EntryDraft, error)
	SaveDraft(ctx context.Context, draft *EntryDraft) error
	GetDraft(ctx context.Context, id string) (*EntryDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// IEmailService defines the interface for email operations
type IEmailService interface {
	SendEmail(to, subject, body string) error
	SendVerificationEmail(user *models.User, token string) error
	SendWelcomeEmail(user *models.User) error
	SendWeeklyDigest(user *models.User, report *models.WeeklyReport) error
}

// IWeatherService returns a best-effort environmental snapshot for a
// location. A nil snapshot with a nil error means "nothing available".
type IWeatherService interface {
	Snapshot(ctx context.Context, lat, lon float64) (*models.EnvironmentalData, error)
}

// IWearableService returns a best-effort physiological snapshot for a
// user's connected wearable.
type IWearableService interface {
	Snapshot(ctx context.Context, profile *models.UserProfile) (*models.PhysiologicalData, error)
}

// IExportService builds and stores clinician-facing report exports.
type IExportService interface {
	ShareReport(ctx context.Context, user *models.User, report *models.WeeklyReport, entries []models.Entry) (string, error)
}
