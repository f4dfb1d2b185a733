package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flarelog/backend/internal/models"
)

// Correlation tuning. minOccurrences is an invariant from the product
// rules (never surface a pattern seen once); the rest are tunable.
const (
	correlationLookahead = 72 * time.Hour
	minOccurrences       = 2
)

type triggerEvent struct {
	entryID   uuid.UUID
	value     string
	timestamp time.Time
}

type outcomeEvent struct {
	entryID   uuid.UUID
	value     string
	timestamp time.Time
}

type observedPair struct {
	triggerValue string
	outcomeValue string
	delayMinutes float64
}

// AggregateCorrelations scans a user's entry history for
// trigger-then-outcome patterns and returns surfaced Correlation
// tuples sorted by confidence descending, occurrence count breaking
// ties. Entries may arrive in any order; they are sorted by timestamp
// before pairing, which the delay computation depends on.
func AggregateCorrelations(entries []models.Entry) []models.Correlation {
	sorted := append([]models.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	triggers, outcomes := classifyEvents(sorted)
	pairs := pairTriggersToOutcomes(triggers, outcomes)
	return rankCorrelations(groupPairs(pairs))
}

// classifyEvents splits entries into trigger-class and outcome-class
// events. Any entry tagged with trigger labels contributes one trigger
// event per label; flare entries contribute one outcome event each.
func classifyEvents(sorted []models.Entry) ([]triggerEvent, []outcomeEvent) {
	var triggers []triggerEvent
	var outcomes []outcomeEvent
	for _, e := range sorted {
		for _, label := range e.Triggers {
			if label == "" {
				continue
			}
			triggers = append(triggers, triggerEvent{entryID: e.ID, value: label, timestamp: e.Timestamp})
		}
		if e.Type == models.EntryTypeFlare {
			outcomes = append(outcomes, outcomeEvent{entryID: e.ID, value: outcomeValue(e), timestamp: e.Timestamp})
		}
	}
	return triggers, outcomes
}

// outcomeValue names a flare outcome, qualified by severity when one
// is set.
func outcomeValue(e models.Entry) string {
	if ord := e.Severity.Ordinal(); ord > 0 {
		return string(e.Severity) + " flare"
	}
	return "flare"
}

// pairTriggersToOutcomes finds, for every trigger event, the nearest
// subsequent outcome within the lookahead window. A trigger with no
// qualifying outcome contributes nothing. An entry tagged as both a
// trigger and a flare never pairs with itself.
func pairTriggersToOutcomes(triggers []triggerEvent, outcomes []outcomeEvent) []observedPair {
	var pairs []observedPair
	for _, trig := range triggers {
		for _, out := range outcomes {
			if out.entryID == trig.entryID {
				continue
			}
			if !out.timestamp.After(trig.timestamp) {
				continue
			}
			delay := out.timestamp.Sub(trig.timestamp)
			if delay > correlationLookahead {
				break
			}
			pairs = append(pairs, observedPair{
				triggerValue: trig.value,
				outcomeValue: out.value,
				delayMinutes: delay.Minutes(),
			})
			break
		}
	}
	return pairs
}

func groupPairs(pairs []observedPair) []models.Correlation {
	type group struct {
		delays []float64
	}
	groups := make(map[[2]string]*group)
	var order [][2]string
	for _, p := range pairs {
		key := [2]string{p.triggerValue, p.outcomeValue}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.delays = append(g.delays, p.delayMinutes)
	}

	correlations := make([]models.Correlation, 0, len(order))
	for _, key := range order {
		g := groups[key]
		count := len(g.delays)
		if count < minOccurrences {
			continue
		}
		mean := meanOf(g.delays)
		correlations = append(correlations, models.Correlation{
			TriggerType:     classifyTriggerType(key[0]),
			TriggerValue:    key[0],
			OutcomeValue:    key[1],
			OccurrenceCount: count,
			AvgDelayMinutes: mean,
			Confidence:      confidenceScore(count, g.delays, mean),
		})
	}
	return correlations
}

func rankCorrelations(correlations []models.Correlation) []models.Correlation {
	sort.SliceStable(correlations, func(i, j int) bool {
		if correlations[i].Confidence != correlations[j].Confidence {
			return correlations[i].Confidence > correlations[j].Confidence
		}
		return correlations[i].OccurrenceCount > correlations[j].OccurrenceCount
	})
	return correlations
}

// confidenceScore grows monotonically with occurrence count and
// shrinks as the observed delays get less consistent. Always in
// [0, 1]. The coefficients are tunable product heuristics.
func confidenceScore(count int, delays []float64, mean float64) float64 {
	base := float64(count) / float64(count+2)

	consistency := 1.0
	if mean > 0 && len(delays) > 1 {
		cv := math.Sqrt(varianceOf(delays, mean)) / mean
		consistency = 1 / (1 + cv)
	}

	score := base * (0.6 + 0.4*consistency)
	return math.Min(1, math.Max(0, score))
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// classifyTriggerType buckets a free-text trigger label into a coarse
// trigger class for display and grouping. Classes are checked in a
// fixed order so labels matching more than one class always resolve
// the same way.
func classifyTriggerType(label string) string {
	lower := strings.ToLower(label)
	for _, tc := range triggerTypeKeywords {
		for _, kw := range tc.keywords {
			if strings.Contains(lower, kw) {
				return tc.class
			}
		}
	}
	return "activity"
}

var triggerTypeKeywords = []struct {
	class    string
	keywords []string
}{
	{"food", []string{"dairy", "gluten", "caffeine", "alcohol", "sugar", "spicy", "coffee", "wine", "chocolate"}},
	{"medication", []string{"medication", "dose", "pill", "ibuprofen", "antibiotic"}},
	{"weather", []string{"weather", "heat", "cold", "humidity", "pressure", "rain", "storm", "pollen"}},
	{"stress", []string{"stress", "anxiety", "work", "deadline", "argument"}},
	{"sleep", []string{"sleep", "insomnia", "nap"}},
	{"time_of_day", []string{"morning", "evening", "night", "late"}},
}
