package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/flarelog/backend/internal/models"
)

func flareAt(ts time.Time, severity models.Severity) models.Entry {
	return models.Entry{
		ID:        uuid.New(),
		Type:      models.EntryTypeFlare,
		Severity:  severity,
		Timestamp: ts,
	}
}

func TestWeekBounds(t *testing.T) {
	// 2024-01-03 is a Wednesday; the containing week runs Sunday
	// 2023-12-31 through Sunday 2024-01-07.
	wednesday := time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC)
	start, end := WeekBounds(wednesday, time.UTC)

	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Sunday, start.Weekday())

	t.Run("sunday is its own week start", func(t *testing.T) {
		sunday := time.Date(2024, 1, 7, 23, 59, 0, 0, time.UTC)
		start, end := WeekBounds(sunday, time.UTC)
		assert.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("timezone shifts the week boundary", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		assert.NoError(t, err)
		// Saturday 23:00 in New York is already Sunday in UTC.
		lateSaturday := time.Date(2024, 1, 7, 4, 0, 0, 0, time.UTC)
		start, _ := WeekBounds(lateSaturday, loc)
		assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, loc), start)
	})

	t.Run("nil location defaults to UTC", func(t *testing.T) {
		start, _ := WeekBounds(wednesday, nil)
		assert.Equal(t, time.UTC, start.Location())
	})
}

func TestComputeWeeklyReport_EmptyWeek(t *testing.T) {
	userID := uuid.New()
	weekStart := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	report := ComputeWeeklyReport(userID, weekStart, nil, nil, nil, time.UTC)

	// 0.4*100 + 0.4*100 + 0.2*0 = 80
	assert.Equal(t, 80, report.HealthScore)
	assert.Equal(t, 0, report.FlareCount)
	assert.Equal(t, 0.0, report.AvgSeverity)
	assert.Equal(t, 0, report.LoggingConsistency)
	assert.Equal(t, models.TrendStable, report.Trend)
	assert.Equal(t, weekStart, report.WeekStart)
	assert.Equal(t, weekStart.AddDate(0, 0, 6), report.WeekEnd)
	assert.Empty(t, report.TopSymptoms)
	assert.Empty(t, report.TopTriggers)
}

func TestComputeWeeklyReport_TwoFlareWeek(t *testing.T) {
	userID := uuid.New()
	weekStart := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		flareAt(weekStart.AddDate(0, 0, 1), models.SeverityMild),
		flareAt(weekStart.AddDate(0, 0, 4), models.SeveritySevere),
	}

	report := ComputeWeeklyReport(userID, weekStart, entries, nil, nil, time.UTC)

	// flare component 0.4*(100-30)=28, severity component with avg 2.0
	// is 0.4*(100-50)=20, consistency round(100*2/7)=29 adds 5.8.
	assert.Equal(t, 2, report.FlareCount)
	assert.Equal(t, 2.0, report.AvgSeverity)
	assert.Equal(t, 29, report.LoggingConsistency)
	assert.Equal(t, 54, report.HealthScore)

	t.Run("same inputs produce the same report", func(t *testing.T) {
		again := ComputeWeeklyReport(userID, weekStart, entries, nil, nil, time.UTC)
		assert.Equal(t, report.HealthScore, again.HealthScore)
		assert.Equal(t, report.TopSymptoms, again.TopSymptoms)
		assert.Equal(t, report.TopTriggers, again.TopTriggers)
		assert.Equal(t, report.Trend, again.Trend)
	})
}

func TestComputeWeeklyReport_PenaltiesClampAtZero(t *testing.T) {
	userID := uuid.New()
	weekStart := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	// Ten severe flares spread over the full week: both penalty terms
	// bottom out and only the consistency bonus remains.
	var entries []models.Entry
	for i := 0; i < 10; i++ {
		entries = append(entries, flareAt(weekStart.AddDate(0, 0, i%7).Add(time.Hour), models.SeveritySevere))
	}

	report := ComputeWeeklyReport(userID, weekStart, entries, nil, nil, time.UTC)

	assert.Equal(t, 10, report.FlareCount)
	assert.Equal(t, 3.0, report.AvgSeverity)
	assert.Equal(t, 100, report.LoggingConsistency)
	// max(0, 100-150)=0 and max(0, 100-75)=25, so 0 + 10 + 20.
	assert.Equal(t, 30, report.HealthScore)
}

func TestComputeWeeklyReport_UnratedFlaresExcludedFromAverage(t *testing.T) {
	weekStart := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		flareAt(weekStart.Add(time.Hour), ""),
		flareAt(weekStart.AddDate(0, 0, 2), models.SeverityModerate),
	}

	report := ComputeWeeklyReport(uuid.New(), weekStart, entries, nil, nil, time.UTC)

	assert.Equal(t, 2, report.FlareCount)
	assert.Equal(t, 2.0, report.AvgSeverity)
}

func TestComputeWeeklyReport_Trend(t *testing.T) {
	weekStart := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		priorScore int
		want       models.Trend
	}{
		// An empty week scores 80.
		{"improving when score rises by more than 10", 69, models.TrendImproving},
		{"stable at exactly +10", 70, models.TrendStable},
		{"stable at exactly -10", 90, models.TrendStable},
		{"worsening when score drops by more than 10", 91, models.TrendWorsening},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prior := &models.WeeklyReport{HealthScore: tc.priorScore}
			report := ComputeWeeklyReport(uuid.New(), weekStart, nil, prior, nil, time.UTC)
			assert.Equal(t, tc.want, report.Trend)
		})
	}

	t.Run("no prior report means stable", func(t *testing.T) {
		report := ComputeWeeklyReport(uuid.New(), weekStart, nil, nil, nil, time.UTC)
		assert.Equal(t, models.TrendStable, report.Trend)
	})
}

func TestLoggingConsistency(t *testing.T) {
	base := time.Date(2023, 12, 31, 8, 0, 0, 0, time.UTC)

	entriesOnDays := func(days ...int) []models.Entry {
		var entries []models.Entry
		for _, d := range days {
			entries = append(entries, models.Entry{Type: models.EntryTypeNote, Timestamp: base.AddDate(0, 0, d)})
		}
		return entries
	}

	assert.Equal(t, 0, loggingConsistency(nil, time.UTC))
	assert.Equal(t, 14, loggingConsistency(entriesOnDays(0), time.UTC))
	assert.Equal(t, 43, loggingConsistency(entriesOnDays(0, 2, 4), time.UTC))
	assert.Equal(t, 100, loggingConsistency(entriesOnDays(0, 1, 2, 3, 4, 5, 6), time.UTC))

	t.Run("multiple entries on one day count once", func(t *testing.T) {
		entries := append(entriesOnDays(0, 0, 0), entriesOnDays(1)...)
		assert.Equal(t, 29, loggingConsistency(entries, time.UTC))
	})
}

func TestTopLabels(t *testing.T) {
	entry := func(symptoms ...string) models.Entry {
		return models.Entry{Symptoms: models.JSONBStringArray(symptoms)}
	}
	symptoms := func(e models.Entry) []string { return e.Symptoms }

	t.Run("ranked by count, ties broken by first appearance", func(t *testing.T) {
		entries := []models.Entry{
			entry("fatigue", "headache"),
			entry("joint pain", "headache"),
			entry("joint pain"),
		}
		ranked := topLabels(entries, symptoms)

		assert.Len(t, ranked, 3)
		assert.Equal(t, models.LabelCount{Name: "headache", Count: 2}, ranked[0])
		assert.Equal(t, models.LabelCount{Name: "joint pain", Count: 2}, ranked[1])
		assert.Equal(t, models.LabelCount{Name: "fatigue", Count: 1}, ranked[2])
	})

	t.Run("truncates to five", func(t *testing.T) {
		entries := []models.Entry{entry("a", "b", "c", "d", "e", "f", "g")}
		assert.Len(t, topLabels(entries, symptoms), 5)
	})

	t.Run("ignores empty labels", func(t *testing.T) {
		entries := []models.Entry{entry("", "fatigue", "")}
		ranked := topLabels(entries, symptoms)
		assert.Len(t, ranked, 1)
		assert.Equal(t, "fatigue", ranked[0].Name)
	})
}

func TestKeepTopCorrelations(t *testing.T) {
	correlations := []models.Correlation{
		{TriggerValue: "dairy", Confidence: 0.9},
		{TriggerValue: "stress", Confidence: 0.8},
		{TriggerValue: "heat", Confidence: 0.7},
		{TriggerValue: "late night", Confidence: 0.6},
	}

	kept := keepTopCorrelations(correlations)

	assert.Len(t, kept, 3)
	assert.Equal(t, "dairy", kept[0].TriggerValue)
	assert.Equal(t, "heat", kept[2].TriggerValue)
}

func TestBuildKeyInsights(t *testing.T) {
	t.Run("quiet week opens with praise", func(t *testing.T) {
		insights := buildKeyInsights(0, 100, nil, nil, models.TrendStable)
		assert.Contains(t, insights[0], "No flares logged")
		assert.Contains(t, insights[1], "Great logging consistency")
	})

	t.Run("heavy week flags triggers and trend", func(t *testing.T) {
		triggers := models.LabelCountList{{Name: "dairy", Count: 3}}
		correlations := models.CorrelationList{{
			TriggerValue:    "dairy",
			OutcomeValue:    "severe flare",
			OccurrenceCount: 3,
			AvgDelayMinutes: 120,
		}}
		insights := buildKeyInsights(5, 20, triggers, correlations, models.TrendWorsening)

		assert.Contains(t, insights[0], "challenging week with 5 flares")
		assert.Contains(t, insights[1], "Logging more regularly")
		assert.Contains(t, insights[2], `"dairy"`)
		assert.Contains(t, insights[3], "severe flare")
		assert.Contains(t, insights[len(insights)-1], "dipped")
	})

	t.Run("middling consistency stays silent", func(t *testing.T) {
		insights := buildKeyInsights(1, 50, nil, nil, models.TrendStable)
		assert.Len(t, insights, 1)
	})
}
