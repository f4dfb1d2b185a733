package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	Name          string         `gorm:"not null" json:"name"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"not null" json:"-"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type UserProfile struct {
	ID             uuid.UUID        `gorm:"type:uuid;primarykey" json:"id"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Timezone       string           `gorm:"size:64;not null;default:'UTC'" json:"timezone"`
	Conditions     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"conditions"`
	ClinicianEmail string           `gorm:"size:255" json:"clinician_email"`
	// Location used for the best-effort weather snapshot on entry
	// creation. Zero values mean "no location set".
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Wearable OAuth tokens. Refresh is single-attempt; a failed
	// refresh simply means an entry without a physiological snapshot.
	WearableAccessToken  string         `gorm:"size:512" json:"-"`
	WearableRefreshToken string         `gorm:"size:512" json:"-"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
