package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flarelog/backend/internal/models"
)

// EngagementService keeps the per-user streak/badge row up to date as
// entries are saved.
type EngagementService struct {
	db *gorm.DB
}

// Ensure EngagementService implements IEngagementService
var _ IEngagementService = (*EngagementService)(nil)

// NewEngagementService creates a new EngagementService instance
func NewEngagementService(db *gorm.DB) *EngagementService {
	return &EngagementService{db: db}
}

// calendarDate truncates t to midnight in the given location.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// advanceStreak applies the streak state machine for an entry logged
// on entryDate (a calendar midnight). The transition is idempotent
// with respect to "has this day already been counted": a second entry
// on an already-counted day changes nothing but the totals.
func advanceStreak(e *models.Engagement, entryDate time.Time) {
	switch {
	case e.LastLogDate.IsZero():
		e.CurrentStreak = 1
		e.LastLogDate = entryDate
	case sameDay(e.LastLogDate, entryDate):
		// already counted
	case sameDay(e.LastLogDate.AddDate(0, 0, 1), entryDate):
		e.CurrentStreak++
		e.LastLogDate = entryDate
	default:
		e.CurrentStreak = 1
		e.LastLogDate = entryDate
	}

	if e.CurrentStreak > e.LongestStreak {
		e.LongestStreak = e.CurrentStreak
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// evaluateBadges returns badges newly earned under the given stats,
// appending them to the engagement row. Earned badges are a set
// union; nothing is ever removed.
func evaluateBadges(e *models.Engagement, stats BadgeStats) []Badge {
	var earned []Badge
	for _, badge := range badgeCatalog {
		if e.HasBadge(badge.ID) {
			continue
		}
		if badge.Earned(stats) {
			e.Badges = append(e.Badges, badge.ID)
			earned = append(earned, badge)
		}
	}
	return earned
}

// Get returns the engagement row for a user, creating a zeroed row on
// first access.
func (s *EngagementService) Get(ctx context.Context, userID uuid.UUID) (*models.Engagement, error) {
	var engagement models.Engagement
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&engagement).Error
	if err == gorm.ErrRecordNotFound {
		engagement = models.Engagement{UserID: userID, Badges: models.JSONBStringArray{}}
		if err := s.db.WithContext(ctx).Create(&engagement).Error; err != nil {
			return nil, err
		}
		return &engagement, nil
	}
	if err != nil {
		return nil, err
	}
	return &engagement, nil
}

// RecordEntry updates streaks, totals and badges for a newly saved
// entry and returns the updated row plus any newly earned badges for
// notification purposes. Concurrent saves for the same user race on
// this row with last-write-wins semantics, which is accepted.
func (s *EngagementService) RecordEntry(ctx context.Context, userID uuid.UUID, entry models.Entry, loc *time.Location) (*models.Engagement, []Badge, error) {
	engagement, err := s.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	advanceStreak(engagement, calendarDate(entry.Timestamp, loc))
	engagement.TotalLogs++

	stats, err := s.buildBadgeStats(ctx, userID, engagement, entry)
	if err != nil {
		return nil, nil, err
	}
	earned := evaluateBadges(engagement, stats)

	if err := s.db.WithContext(ctx).Save(engagement).Error; err != nil {
		return nil, nil, err
	}
	return engagement, earned, nil
}

// buildBadgeStats gathers the distinct-label and correlation counts
// badge predicates need. Per-user entry histories are small (days to
// weeks of rows), so loading them here is fine.
func (s *EngagementService) buildBadgeStats(ctx context.Context, userID uuid.UUID, engagement *models.Engagement, entry models.Entry) (BadgeStats, error) {
	var entries []models.Entry
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp ASC").Find(&entries).Error; err != nil {
		return BadgeStats{}, err
	}

	symptoms := make(map[string]struct{})
	triggers := make(map[string]struct{})
	for _, e := range entries {
		for _, label := range e.Symptoms {
			symptoms[label] = struct{}{}
		}
		for _, label := range e.Triggers {
			triggers[label] = struct{}{}
		}
	}
	for _, label := range entry.Symptoms {
		symptoms[label] = struct{}{}
	}
	for _, label := range entry.Triggers {
		triggers[label] = struct{}{}
	}

	return BadgeStats{
		CurrentStreak:        engagement.CurrentStreak,
		LongestStreak:        engagement.LongestStreak,
		TotalLogs:            engagement.TotalLogs,
		Entry:                entry,
		DistinctSymptomCount: len(symptoms),
		DistinctTriggerCount: len(triggers),
		CorrelationCount:     len(AggregateCorrelations(entries)),
	}, nil
}
