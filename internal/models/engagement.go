package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Engagement is the per-user gamification row: streaks, lifetime log
// count and earned badges. Badges are append-only; once earned they
// are never revoked.
type Engagement struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	CurrentStreak int              `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak int              `gorm:"not null;default:0" json:"longest_streak"`
	TotalLogs     int              `gorm:"not null;default:0" json:"total_logs"`
	Badges        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"badges"`

	// LastLogDate holds the last calendar date (midnight, user's
	// timezone) that had at least one entry. Zero means no log yet.
	LastLogDate time.Time `json:"last_log_date"`
}

func (e *Engagement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// HasBadge reports whether the badge has already been earned.
func (e *Engagement) HasBadge(id string) bool {
	return e.Badges.Contains(id)
}
