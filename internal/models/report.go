package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trend labels the week-over-week movement of the health score.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendWorsening Trend = "worsening"
	TrendStable    Trend = "stable"
)

// LabelCount is one ranked {name, count} pair in a weekly report.
type LabelCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// LabelCountList is stored as a JSONB array.
type LabelCountList []LabelCount

// Value implements the driver.Valuer interface
func (l LabelCountList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *LabelCountList) Scan(value interface{}) error {
	if value == nil {
		*l = LabelCountList{}
		return nil
	}
	return scanJSONB(value, l)
}

// Correlation is a derived pattern between a trigger and a later
// outcome for one user. Only tuples with OccurrenceCount >= 2 are
// ever surfaced.
type Correlation struct {
	TriggerType     string  `json:"trigger_type"`
	TriggerValue    string  `json:"trigger_value"`
	OutcomeValue    string  `json:"outcome_value"`
	OccurrenceCount int     `json:"occurrence_count"`
	AvgDelayMinutes float64 `json:"avg_delay_minutes"`
	Confidence      float64 `json:"confidence"`
}

// CorrelationList is stored as a JSONB array.
type CorrelationList []Correlation

// Value implements the driver.Valuer interface
func (l CorrelationList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *CorrelationList) Scan(value interface{}) error {
	if value == nil {
		*l = CorrelationList{}
		return nil
	}
	return scanJSONB(value, l)
}

// WeeklyReport is the persisted, idempotently recomputable summary of
// one user's calendar week (Sunday through Saturday). Recomputation
// fully replaces the row; there is no partial merge.
type WeeklyReport struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reports_user_week" json:"user_id"`

	WeekStart time.Time `gorm:"not null;uniqueIndex:idx_reports_user_week" json:"week_start"`
	WeekEnd   time.Time `gorm:"not null" json:"week_end"`

	HealthScore        int     `gorm:"not null" json:"health_score"`
	FlareCount         int     `gorm:"not null" json:"flare_count"`
	AvgSeverity        float64 `gorm:"not null" json:"avg_severity"`
	LoggingConsistency int     `gorm:"not null" json:"logging_consistency"`
	Trend              Trend   `gorm:"size:20;not null" json:"trend"`

	TopSymptoms     LabelCountList   `gorm:"type:jsonb;not null;default:'[]'" json:"top_symptoms"`
	TopTriggers     LabelCountList   `gorm:"type:jsonb;not null;default:'[]'" json:"top_triggers"`
	TopCorrelations CorrelationList  `gorm:"type:jsonb;not null;default:'[]'" json:"top_correlations"`
	KeyInsights     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"key_insights"`
}

func (r *WeeklyReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
