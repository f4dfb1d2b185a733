package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/flarelog/backend/internal/models"
)

var ErrReportNotFound = errors.New("weekly report not found")

// ReportService computes and persists weekly reports. Recomputation
// for the same (user, weekStart) fully replaces the stored row.
type ReportService struct {
	db    *gorm.DB
	email IEmailService
}

// Ensure ReportService implements IReportService
var _ IReportService = (*ReportService)(nil)

// NewReportService creates a new ReportService instance. The email
// collaborator may be nil, in which case no digest is sent.
func NewReportService(db *gorm.DB, email IEmailService) *ReportService {
	return &ReportService{db: db, email: email}
}

// ComputeWeek loads the week's entries, runs the metrics and
// correlation passes and upserts the resulting report. A persistence
// failure surfaces to the caller and the computed summary is
// discarded; nothing is partially written.
func (s *ReportService) ComputeWeek(ctx context.Context, userID uuid.UUID, weekStart time.Time) (*models.WeeklyReport, error) {
	loc := s.userLocation(ctx, userID)
	weekStart, weekEnd := WeekBounds(weekStart, loc)

	var entries []models.Entry
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND timestamp >= ? AND timestamp < ?", userID, weekStart, weekEnd).
		Order("timestamp ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	prior, err := s.priorReport(ctx, userID, weekStart, loc)
	if err != nil {
		return nil, err
	}

	correlations, err := s.Correlations(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := ComputeWeeklyReport(userID, weekStart, entries, prior, correlations, loc)

	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "week_start"}},
		UpdateAll: true,
	}).Create(&report).Error; err != nil {
		return nil, err
	}

	s.sendDigest(ctx, userID, &report)
	return &report, nil
}

func (s *ReportService) userLocation(ctx context.Context, userID uuid.UUID) *time.Location {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *ReportService) priorReport(ctx context.Context, userID uuid.UUID, weekStart time.Time, loc *time.Location) (*models.WeeklyReport, error) {
	priorStart := weekStart.AddDate(0, 0, -7)
	var prior models.WeeklyReport
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, priorStart).
		First(&prior).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prior, nil
}

// Correlations runs the aggregation pass over the user's full entry
// history and returns the surfaced tuples.
func (s *ReportService) Correlations(ctx context.Context, userID uuid.UUID) ([]models.Correlation, error) {
	var entries []models.Entry
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return AggregateCorrelations(entries), nil
}

// sendDigest emails the weekly summary. Fire-and-forget: a failed
// send never fails the computation.
func (s *ReportService) sendDigest(ctx context.Context, userID uuid.UUID, report *models.WeeklyReport) {
	if s.email == nil {
		return
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		log.Printf("[ReportService] digest skipped, user lookup failed: %v", err)
		return
	}
	if err := s.email.SendWeeklyDigest(&user, report); err != nil {
		log.Printf("[ReportService] digest send failed for %s: %v", user.Email, err)
	}
}

// GetReport looks up the stored report for the week containing day.
// Any date inside the week addresses the same report, in the user's
// timezone like ComputeWeek.
func (s *ReportService) GetReport(ctx context.Context, userID uuid.UUID, day time.Time) (*models.WeeklyReport, error) {
	loc := s.userLocation(ctx, userID)
	weekStart, _ := WeekBounds(day, loc)

	var report models.WeeklyReport
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&report).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) ListReports(ctx context.Context, userID uuid.UUID) ([]models.WeeklyReport, error) {
	var reports []models.WeeklyReport
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("week_start DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}
