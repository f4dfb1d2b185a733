package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelog/backend/internal/models"
	"github.com/flarelog/backend/internal/testhelpers"
)

func day(d int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestAdvanceStreak(t *testing.T) {
	t.Run("first ever log starts a streak", func(t *testing.T) {
		e := &models.Engagement{}
		advanceStreak(e, day(0))
		assert.Equal(t, 1, e.CurrentStreak)
		assert.Equal(t, 1, e.LongestStreak)
		assert.Equal(t, day(0), e.LastLogDate)
	})

	t.Run("second entry on the same day is a no-op", func(t *testing.T) {
		e := &models.Engagement{CurrentStreak: 3, LongestStreak: 5, LastLogDate: day(0)}
		advanceStreak(e, day(0))
		assert.Equal(t, 3, e.CurrentStreak)
		assert.Equal(t, 5, e.LongestStreak)
	})

	t.Run("next day extends the streak", func(t *testing.T) {
		e := &models.Engagement{CurrentStreak: 3, LongestStreak: 3, LastLogDate: day(0)}
		advanceStreak(e, day(1))
		assert.Equal(t, 4, e.CurrentStreak)
		assert.Equal(t, 4, e.LongestStreak)
	})

	t.Run("a gap resets to one but keeps the longest", func(t *testing.T) {
		e := &models.Engagement{CurrentStreak: 9, LongestStreak: 9, LastLogDate: day(0)}
		advanceStreak(e, day(3))
		assert.Equal(t, 1, e.CurrentStreak)
		assert.Equal(t, 9, e.LongestStreak)
	})

	t.Run("backdated entry also resets", func(t *testing.T) {
		e := &models.Engagement{CurrentStreak: 4, LongestStreak: 4, LastLogDate: day(5)}
		advanceStreak(e, day(2))
		assert.Equal(t, 1, e.CurrentStreak)
		assert.Equal(t, day(2), e.LastLogDate)
	})
}

func TestEvaluateBadges(t *testing.T) {
	t.Run("first log earns first_log only", func(t *testing.T) {
		e := &models.Engagement{Badges: models.JSONBStringArray{}}
		earned := evaluateBadges(e, BadgeStats{TotalLogs: 1, CurrentStreak: 1, LongestStreak: 1})

		require.Len(t, earned, 1)
		assert.Equal(t, "first_log", earned[0].ID)
		assert.True(t, e.HasBadge("first_log"))
	})

	t.Run("already earned badges are not re-awarded", func(t *testing.T) {
		e := &models.Engagement{Badges: models.JSONBStringArray{"first_log", "ten_logs"}}
		earned := evaluateBadges(e, BadgeStats{TotalLogs: 12})
		assert.Empty(t, earned)
		assert.Len(t, e.Badges, 2)
	})

	t.Run("several thresholds can land at once", func(t *testing.T) {
		e := &models.Engagement{Badges: models.JSONBStringArray{"first_log"}}
		stats := BadgeStats{
			TotalLogs:            10,
			LongestStreak:        7,
			DistinctSymptomCount: 5,
		}
		earned := evaluateBadges(e, stats)

		var ids []string
		for _, b := range earned {
			ids = append(ids, b.ID)
		}
		assert.Equal(t, []string{"ten_logs", "week_streak", "symptom_sleuth"}, ids)
	})

	t.Run("recovery entry earns recovery_logged", func(t *testing.T) {
		e := &models.Engagement{Badges: models.JSONBStringArray{"first_log"}}
		stats := BadgeStats{TotalLogs: 2, Entry: models.Entry{Type: models.EntryTypeRecovery}}
		earned := evaluateBadges(e, stats)

		require.Len(t, earned, 1)
		assert.Equal(t, "recovery_logged", earned[0].ID)
	})
}

func TestBadgeCatalog(t *testing.T) {
	assert.NotEmpty(t, AllBadges())

	badge, ok := BadgeByID("week_streak")
	assert.True(t, ok)
	assert.Equal(t, "Week Warrior", badge.Name)

	_, ok = BadgeByID("no_such_badge")
	assert.False(t, ok)
}

func TestEngagementService_GetCreatesRow(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := NewEngagementService(db)
	userID := uuid.New()

	engagement, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, engagement.UserID)
	assert.Equal(t, 0, engagement.TotalLogs)

	again, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, engagement.ID, again.ID)
}

func TestEngagementService_RecordEntry(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	svc := NewEngagementService(db)
	userID := uuid.New()
	ctx := context.Background()

	first := models.Entry{UserID: userID, Type: models.EntryTypeNote, Timestamp: day(0).Add(9 * time.Hour)}
	engagement, earned, err := svc.RecordEntry(ctx, userID, first, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 1, engagement.CurrentStreak)
	assert.Equal(t, 1, engagement.TotalLogs)
	require.Len(t, earned, 1)
	assert.Equal(t, "first_log", earned[0].ID)

	t.Run("same day again only bumps the total", func(t *testing.T) {
		second := models.Entry{UserID: userID, Type: models.EntryTypeNote, Timestamp: day(0).Add(20 * time.Hour)}
		engagement, earned, err := svc.RecordEntry(ctx, userID, second, time.UTC)
		require.NoError(t, err)

		assert.Equal(t, 1, engagement.CurrentStreak)
		assert.Equal(t, 2, engagement.TotalLogs)
		assert.Empty(t, earned)
	})

	t.Run("next day extends the persisted streak", func(t *testing.T) {
		third := models.Entry{UserID: userID, Type: models.EntryTypeNote, Timestamp: day(1).Add(8 * time.Hour)}
		engagement, _, err := svc.RecordEntry(ctx, userID, third, time.UTC)
		require.NoError(t, err)

		assert.Equal(t, 2, engagement.CurrentStreak)
		assert.Equal(t, 2, engagement.LongestStreak)

		var stored models.Engagement
		require.NoError(t, db.Where("user_id = ?", userID).First(&stored).Error)
		assert.Equal(t, 2, stored.CurrentStreak)
		assert.True(t, stored.HasBadge("first_log"))
	})
}
