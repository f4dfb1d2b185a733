package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flarelog/backend/internal/models"
)

func triggerEntry(ts time.Time, labels ...string) models.Entry {
	return models.Entry{
		ID:        uuid.New(),
		Type:      models.EntryTypeTrigger,
		Triggers:  models.JSONBStringArray(labels),
		Timestamp: ts,
	}
}

func TestAggregateCorrelations_SurfacesRepeatedPattern(t *testing.T) {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		triggerEntry(base, "dairy"),
		flareAt(base.Add(2*time.Hour), models.SeveritySevere),
		triggerEntry(base.AddDate(0, 0, 3), "dairy"),
		flareAt(base.AddDate(0, 0, 3).Add(4*time.Hour), models.SeveritySevere),
	}

	correlations := AggregateCorrelations(entries)

	require.Len(t, correlations, 1)
	c := correlations[0]
	assert.Equal(t, "food", c.TriggerType)
	assert.Equal(t, "dairy", c.TriggerValue)
	assert.Equal(t, "severe flare", c.OutcomeValue)
	assert.Equal(t, 2, c.OccurrenceCount)
	assert.Equal(t, 180.0, c.AvgDelayMinutes)
	assert.Greater(t, c.Confidence, 0.0)
	assert.LessOrEqual(t, c.Confidence, 1.0)
}

func TestAggregateCorrelations_SingleOccurrenceNeverSurfaced(t *testing.T) {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		triggerEntry(base, "dairy"),
		flareAt(base.Add(2*time.Hour), models.SeverityMild),
	}

	assert.Empty(t, AggregateCorrelations(entries))
}

func TestAggregateCorrelations_LookaheadWindow(t *testing.T) {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		triggerEntry(base, "stress"),
		flareAt(base.Add(73*time.Hour), models.SeverityMild),
		triggerEntry(base.AddDate(0, 0, 10), "stress"),
		flareAt(base.AddDate(0, 0, 10).Add(74*time.Hour), models.SeverityMild),
	}

	// Both flares fall outside the 72 hour window, so the stress
	// trigger never pairs at all.
	assert.Empty(t, AggregateCorrelations(entries))
}

func TestAggregateCorrelations_NearestOutcomeWins(t *testing.T) {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		triggerEntry(base, "pollen"),
		flareAt(base.Add(1*time.Hour), models.SeverityMild),
		flareAt(base.Add(10*time.Hour), models.SeverityMild),
		triggerEntry(base.AddDate(0, 0, 5), "pollen"),
		flareAt(base.AddDate(0, 0, 5).Add(1*time.Hour), models.SeverityMild),
	}

	correlations := AggregateCorrelations(entries)

	require.Len(t, correlations, 1)
	assert.Equal(t, 2, correlations[0].OccurrenceCount)
	// Each trigger pairs with its nearest flare, one hour later.
	assert.Equal(t, 60.0, correlations[0].AvgDelayMinutes)
}

func TestAggregateCorrelations_NoSelfPairing(t *testing.T) {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	// A flare entry that also carries trigger labels must not count as
	// its own outcome.
	selfTagged := flareAt(base, models.SeverityMild)
	selfTagged.Triggers = models.JSONBStringArray{"wine"}
	selfTagged2 := flareAt(base.AddDate(0, 0, 7), models.SeverityMild)
	selfTagged2.Triggers = models.JSONBStringArray{"wine"}

	assert.Empty(t, AggregateCorrelations([]models.Entry{selfTagged, selfTagged2}))

	t.Run("but a later flare still pairs", func(t *testing.T) {
		later := flareAt(base.Add(3*time.Hour), models.SeverityMild)
		later2 := flareAt(base.AddDate(0, 0, 7).Add(3*time.Hour), models.SeverityMild)
		correlations := AggregateCorrelations([]models.Entry{selfTagged, later, selfTagged2, later2})

		require.Len(t, correlations, 1)
		assert.Equal(t, "wine", correlations[0].TriggerValue)
		assert.Equal(t, 180.0, correlations[0].AvgDelayMinutes)
	})
}

func TestAggregateCorrelations_UnorderedInput(t *testing.T) {
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	entries := []models.Entry{
		flareAt(base.AddDate(0, 0, 3).Add(2*time.Hour), models.SeverityMild),
		triggerEntry(base, "caffeine"),
		flareAt(base.Add(2*time.Hour), models.SeverityMild),
		triggerEntry(base.AddDate(0, 0, 3), "caffeine"),
	}

	correlations := AggregateCorrelations(entries)

	require.Len(t, correlations, 1)
	assert.Equal(t, 120.0, correlations[0].AvgDelayMinutes)
}

func TestConfidenceScore(t *testing.T) {
	constant := func(n int, delay float64) []float64 {
		delays := make([]float64, n)
		for i := range delays {
			delays[i] = delay
		}
		return delays
	}

	t.Run("grows with occurrence count", func(t *testing.T) {
		three := confidenceScore(3, constant(3, 120), 120)
		ten := confidenceScore(10, constant(10, 120), 120)
		assert.Greater(t, ten, three)
	})

	t.Run("perfectly consistent delays score count over count plus two", func(t *testing.T) {
		assert.InDelta(t, 0.5, confidenceScore(2, constant(2, 60), 60), 1e-9)
		assert.InDelta(t, 0.6, confidenceScore(3, constant(3, 60), 60), 1e-9)
	})

	t.Run("scattered delays score lower than consistent ones", func(t *testing.T) {
		consistent := confidenceScore(4, constant(4, 100), 100)
		scattered := confidenceScore(4, []float64{5, 50, 200, 145}, 100)
		assert.Less(t, scattered, consistent)
	})

	t.Run("always within unit interval", func(t *testing.T) {
		score := confidenceScore(1000, constant(1000, 30), 30)
		assert.LessOrEqual(t, score, 1.0)
		assert.GreaterOrEqual(t, score, 0.0)
	})
}

func TestRankCorrelations(t *testing.T) {
	ranked := rankCorrelations([]models.Correlation{
		{TriggerValue: "heat", Confidence: 0.5, OccurrenceCount: 2},
		{TriggerValue: "dairy", Confidence: 0.8, OccurrenceCount: 3},
		{TriggerValue: "stress", Confidence: 0.5, OccurrenceCount: 4},
	})

	assert.Equal(t, "dairy", ranked[0].TriggerValue)
	assert.Equal(t, "stress", ranked[1].TriggerValue)
	assert.Equal(t, "heat", ranked[2].TriggerValue)
}

func TestClassifyTriggerType(t *testing.T) {
	cases := map[string]string{
		"Dairy":            "food",
		"red wine":         "food",
		"humidity spike":   "weather",
		"missed dose":      "medication",
		"late night":       "time_of_day",
		"work deadline":    "stress",
		"bad sleep":        "sleep",
		"long bike ride":   "activity",
		"anything unknown": "activity",
	}

	for label, want := range cases {
		assert.Equal(t, want, classifyTriggerType(label), "label %q", label)
	}

	t.Run("ambiguous labels classify the same every time", func(t *testing.T) {
		// "chocolate" contains keywords from both the food and the
		// time_of_day classes; the earlier class must always win.
		for i := 0; i < 100; i++ {
			assert.Equal(t, "food", classifyTriggerType("chocolate"))
			assert.Equal(t, "medication", classifyTriggerType("late antibiotic"))
		}
	})
}
