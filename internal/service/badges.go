package service

import "github.com/flarelog/backend/internal/models"

// BadgeStats is the snapshot a badge predicate is evaluated against,
// taken after the streak and total-log update for the triggering
// entry.
type BadgeStats struct {
	CurrentStreak        int
	LongestStreak        int
	TotalLogs            int
	Entry                models.Entry
	DistinctSymptomCount int
	DistinctTriggerCount int
	CorrelationCount     int
}

// Badge couples an identifier with a monotonic predicate: once the
// predicate holds for a user it can only keep holding, so an earned
// badge is never revoked.
type Badge struct {
	ID          string
	Name        string
	Description string
	Earned      func(BadgeStats) bool
}

// badgeCatalog is ordered; evaluation and notification follow this
// order.
var badgeCatalog = []Badge{
	{
		ID:          "first_log",
		Name:        "First Step",
		Description: "Logged your first entry",
		Earned:      func(s BadgeStats) bool { return s.TotalLogs >= 1 },
	},
	{
		ID:          "ten_logs",
		Name:        "Getting Into It",
		Description: "Logged 10 entries",
		Earned:      func(s BadgeStats) bool { return s.TotalLogs >= 10 },
	},
	{
		ID:          "century_logger",
		Name:        "Centurion",
		Description: "Logged 100 entries",
		Earned:      func(s BadgeStats) bool { return s.TotalLogs >= 100 },
	},
	{
		ID:          "week_streak",
		Name:        "Week Warrior",
		Description: "Logged every day for a week",
		Earned:      func(s BadgeStats) bool { return s.LongestStreak >= 7 },
	},
	{
		ID:          "month_streak",
		Name:        "Monthly Master",
		Description: "Logged every day for 30 days",
		Earned:      func(s BadgeStats) bool { return s.LongestStreak >= 30 },
	},
	{
		ID:          "symptom_sleuth",
		Name:        "Symptom Sleuth",
		Description: "Tracked 5 distinct symptoms",
		Earned:      func(s BadgeStats) bool { return s.DistinctSymptomCount >= 5 },
	},
	{
		ID:          "trigger_tracker",
		Name:        "Trigger Tracker",
		Description: "Tracked 5 distinct triggers",
		Earned:      func(s BadgeStats) bool { return s.DistinctTriggerCount >= 5 },
	},
	{
		ID:          "pattern_finder",
		Name:        "Pattern Finder",
		Description: "Uncovered your first correlation",
		Earned:      func(s BadgeStats) bool { return s.CorrelationCount >= 1 },
	},
	{
		ID:          "recovery_logged",
		Name:        "On The Mend",
		Description: "Logged a recovery",
		Earned:      func(s BadgeStats) bool { return s.Entry.Type == models.EntryTypeRecovery },
	},
}

// AllBadges returns the catalog in evaluation order.
func AllBadges() []Badge {
	return badgeCatalog
}

// BadgeByID looks a badge up in the catalog.
func BadgeByID(id string) (Badge, bool) {
	for _, b := range badgeCatalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}
