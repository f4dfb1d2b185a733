package types

import (
	"time"

	"github.com/flarelog/backend/internal/models"
)

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Timezone string `json:"timezone"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateEntryRequest is the payload for POST /entries.
type CreateEntryRequest struct {
	Timestamp   time.Time        `json:"timestamp"`
	Type        models.EntryType `json:"type" binding:"required"`
	Severity    models.Severity  `json:"severity"`
	EnergyLevel int              `json:"energy_level"`
	Symptoms    []string         `json:"symptoms"`
	Medications []string         `json:"medications"`
	Triggers    []string         `json:"triggers"`
	Note        string           `json:"note"`
}

// UpdateEntryRequest carries the mutable fields of an entry. Nil
// pointers mean "leave unchanged". Snapshots are immutable and have
// no place here.
type UpdateEntryRequest struct {
	Timestamp   *time.Time        `json:"timestamp"`
	Severity    *models.Severity  `json:"severity"`
	EnergyLevel *int              `json:"energy_level"`
	Symptoms    *[]string         `json:"symptoms"`
	Medications *[]string         `json:"medications"`
	Triggers    *[]string         `json:"triggers"`
	Note        *string           `json:"note"`
}

// FollowUpRequest appends one follow-up note to an entry.
type FollowUpRequest struct {
	Note string `json:"note" binding:"required"`
}

// ClassifyRequest is the payload for POST /classify.
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// UpdateProfileRequest carries optional profile changes.
type UpdateProfileRequest struct {
	Timezone       *string   `json:"timezone"`
	Conditions     *[]string `json:"conditions"`
	ClinicianEmail *string   `json:"clinician_email"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
}
