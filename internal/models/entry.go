package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// EntryType identifies what kind of event was logged.
type EntryType string

const (
	EntryTypeFlare      EntryType = "flare"
	EntryTypeMedication EntryType = "medication"
	EntryTypeTrigger    EntryType = "trigger"
	EntryTypeRecovery   EntryType = "recovery"
	EntryTypeEnergy     EntryType = "energy"
	EntryTypeNote       EntryType = "note"
)

// ValidEntryType reports whether t is one of the known entry types.
func ValidEntryType(t EntryType) bool {
	switch t {
	case EntryTypeFlare, EntryTypeMedication, EntryTypeTrigger,
		EntryTypeRecovery, EntryTypeEnergy, EntryTypeNote:
		return true
	}
	return false
}

// Severity rates a flare. It is meaningful only on flare entries.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Ordinal maps a severity to its numeric weight. None and unknown
// values map to 0 and are excluded from averages.
func (s Severity) Ordinal() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	}
	return 0
}

// ValidSeverity reports whether s is one of the known severity labels.
func ValidSeverity(s Severity) bool {
	switch s {
	case SeverityNone, SeverityMild, SeverityModerate, SeveritySevere:
		return true
	}
	return false
}

// FollowUp is one appended note on an existing entry.
type FollowUp struct {
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// FollowUpList is stored as a JSONB array on the entry row.
type FollowUpList []FollowUp

// Value implements the driver.Valuer interface
func (l FollowUpList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements the sql.Scanner interface
func (l *FollowUpList) Scan(value interface{}) error {
	if value == nil {
		*l = FollowUpList{}
		return nil
	}
	return scanJSONB(value, l)
}

// EnvironmentalData is the weather/air-quality snapshot captured when
// an entry is created. It is immutable afterwards. All fields use the
// canonical snake_case naming; provider aliases are normalized away in
// the weather client before a snapshot ever reaches this type.
type EnvironmentalData struct {
	TemperatureC  float64 `json:"temperature_c"`
	HumidityPct   float64 `json:"humidity_pct"`
	PressureHPa   float64 `json:"pressure_hpa"`
	AirQualityIdx int     `json:"air_quality_index"`
	Condition     string  `json:"condition"`
}

// Value implements the driver.Valuer interface
func (d EnvironmentalData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *EnvironmentalData) Scan(value interface{}) error {
	return scanJSONB(value, d)
}

// PhysiologicalData is the wearable snapshot captured when an entry is
// created. Immutable afterwards, same normalization rule as
// EnvironmentalData.
type PhysiologicalData struct {
	RestingHeartRate int `json:"resting_heart_rate"`
	HRVMillis        int `json:"hrv_ms"`
	SleepMinutes     int `json:"sleep_minutes"`
	Steps            int `json:"steps"`
}

// Value implements the driver.Valuer interface
func (d PhysiologicalData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface
func (d *PhysiologicalData) Scan(value interface{}) error {
	return scanJSONB(value, d)
}

// Entry is one logged event: a flare, a medication dose, a suspected
// trigger, a recovery marker, an energy reading or a free-form note.
type Entry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`

	// Timestamp is the event time as entered by the user, not the row
	// creation time.
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	Type      EntryType `gorm:"size:20;not null" json:"type"`

	Severity    Severity `gorm:"size:20" json:"severity,omitempty"`
	EnergyLevel int      `json:"energy_level,omitempty"`

	Symptoms    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"symptoms"`
	Medications JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"medications"`
	Triggers    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"triggers"`

	Note      string       `gorm:"type:text" json:"note"`
	FollowUps FollowUpList `gorm:"type:jsonb;not null;default:'[]'" json:"follow_ups"`

	EnvironmentalData *EnvironmentalData `gorm:"type:jsonb" json:"environmental_data,omitempty"`
	PhysiologicalData *PhysiologicalData `gorm:"type:jsonb" json:"physiological_data,omitempty"`

	Embedding pgvector.Vector `gorm:"type:vector(3)" json:"-"`
}

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	// A zero-valued vector serializes to an empty literal that the
	// driver cannot scan back, so rows written without an embedding
	// get the origin vector instead.
	if len(e.Embedding.Slice()) == 0 {
		e.Embedding = pgvector.NewVector(make([]float32, 3))
	}
	return nil
}
