package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flarelog/backend/internal/models"
)

// Weekly score weights. These are product heuristics; the clamping to
// [0,100] and the trend thresholds are the load-bearing parts.
const (
	flarePenalty     = 15
	severityPenalty  = 25
	flareWeight      = 0.4
	severityWeight   = 0.4
	consistencyScale = 0.2
	trendThreshold   = 10
)

// WeekBounds returns the Sunday 00:00 start and the following Sunday
// 00:00 end of the calendar week containing t, in the given location.
func WeekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	year, month, day := local.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, loc)
	start := midnight.AddDate(0, 0, -int(midnight.Weekday()))
	return start, start.AddDate(0, 0, 7)
}

// ComputeWeeklyReport turns one week of entries into a WeeklyReport.
// prior is the previous week's report, or nil; correlations is the
// user's current surfaced correlation set, used for ranking and
// insight text. The computation is pure: identical input yields an
// identical report.
func ComputeWeeklyReport(userID uuid.UUID, weekStart time.Time, entries []models.Entry, prior *models.WeeklyReport, correlations []models.Correlation, loc *time.Location) models.WeeklyReport {
	if loc == nil {
		loc = time.UTC
	}

	var flares []models.Entry
	for _, e := range entries {
		if e.Type == models.EntryTypeFlare {
			flares = append(flares, e)
		}
	}

	flareCount := len(flares)
	avgSeverity := averageSeverity(flares)
	consistency := loggingConsistency(entries, loc)

	flareScore := math.Max(0, 100-float64(flarePenalty*flareCount))
	severityScore := math.Max(0, 100-severityPenalty*avgSeverity)
	consistencyBonus := consistencyScale * float64(consistency)
	healthScore := int(math.Min(100, math.Round(flareWeight*flareScore+severityWeight*severityScore+consistencyBonus)))

	trend := models.TrendStable
	if prior != nil {
		switch diff := healthScore - prior.HealthScore; {
		case diff > trendThreshold:
			trend = models.TrendImproving
		case diff < -trendThreshold:
			trend = models.TrendWorsening
		}
	}

	topSymptoms := topLabels(flares, func(e models.Entry) []string { return e.Symptoms })
	topTriggers := topLabels(flares, func(e models.Entry) []string { return e.Triggers })
	topCorrelations := keepTopCorrelations(correlations)

	return models.WeeklyReport{
		UserID:             userID,
		WeekStart:          weekStart,
		WeekEnd:            weekStart.AddDate(0, 0, 6),
		HealthScore:        healthScore,
		FlareCount:         flareCount,
		AvgSeverity:        avgSeverity,
		LoggingConsistency: consistency,
		Trend:              trend,
		TopSymptoms:        topSymptoms,
		TopTriggers:        topTriggers,
		TopCorrelations:    topCorrelations,
		KeyInsights:        buildKeyInsights(flareCount, consistency, topTriggers, topCorrelations, trend),
	}
}

// averageSeverity maps flare severities to ordinals (mild=1,
// moderate=2, severe=3) and averages them. Flares without a mapped
// severity are excluded; no mapped severities at all yields 0.
func averageSeverity(flares []models.Entry) float64 {
	var sum, n int
	for _, e := range flares {
		if ord := e.Severity.Ordinal(); ord > 0 {
			sum += ord
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// loggingConsistency is round(100 * daysWithEntries / 7) for a
// seven-day window.
func loggingConsistency(entries []models.Entry, loc *time.Location) int {
	days := make(map[string]struct{})
	for _, e := range entries {
		days[e.Timestamp.In(loc).Format("2006-01-02")] = struct{}{}
	}
	return int(math.Round(100 * float64(len(days)) / 7))
}

// topLabels counts label occurrences across the given entries and
// returns the top five, ties broken by first-seen order.
func topLabels(entries []models.Entry, labels func(models.Entry) []string) models.LabelCountList {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		for _, label := range labels(e) {
			if label == "" {
				continue
			}
			if _, seen := counts[label]; !seen {
				order = append(order, label)
			}
			counts[label]++
		}
	}

	ranked := make(models.LabelCountList, 0, len(order))
	for _, label := range order {
		ranked = append(ranked, models.LabelCount{Name: label, Count: counts[label]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })

	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	return ranked
}

// keepTopCorrelations keeps the strongest correlations for the report.
// The input is assumed already sorted by AggregateCorrelations.
func keepTopCorrelations(correlations []models.Correlation) models.CorrelationList {
	n := len(correlations)
	if n > 3 {
		n = 3
	}
	return models.CorrelationList(append([]models.Correlation(nil), correlations[:n]...))
}

// buildKeyInsights produces the ordered, rule-based insight sentences
// for the weekly digest.
func buildKeyInsights(flareCount, consistency int, topTriggers models.LabelCountList, topCorrelations models.CorrelationList, trend models.Trend) models.JSONBStringArray {
	var insights models.JSONBStringArray

	switch {
	case flareCount == 0:
		insights = append(insights, "No flares logged this week. Whatever you're doing, keep it up!")
	case flareCount <= 2:
		insights = append(insights, fmt.Sprintf("You logged %d flare(s) this week, which looks manageable.", flareCount))
	default:
		insights = append(insights, fmt.Sprintf("A challenging week with %d flares. It may be worth reviewing your recent triggers.", flareCount))
	}

	if consistency >= 70 {
		insights = append(insights, fmt.Sprintf("Great logging consistency at %d%% of days covered.", consistency))
	} else if consistency < 30 {
		insights = append(insights, "Logging more regularly will make your weekly insights sharper.")
	}

	if len(topTriggers) > 0 {
		insights = append(insights, fmt.Sprintf("Your most frequent trigger was %q (%d occurrence(s)).", topTriggers[0].Name, topTriggers[0].Count))
	}

	if len(topCorrelations) > 0 {
		c := topCorrelations[0]
		insights = append(insights, fmt.Sprintf("%q was followed by %s %d time(s), on average %.0f minutes later.", c.TriggerValue, c.OutcomeValue, c.OccurrenceCount, c.AvgDelayMinutes))
	}

	switch trend {
	case models.TrendImproving:
		insights = append(insights, "Your health score improved compared to last week.")
	case models.TrendWorsening:
		insights = append(insights, "Your health score dipped compared to last week. Be kind to yourself.")
	}

	return insights
}
