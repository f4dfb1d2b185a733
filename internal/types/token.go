package types

import "github.com/google/uuid"

// TokenClaims holds the identity carried by a session JWT.
type TokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}
