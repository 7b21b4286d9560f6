package accounts

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated principal in the system.
type User struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	OAuthProvider   string
	OAuthProviderID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastSignInAt    time.Time
}

// Session represents an issued access token. The token itself is a signed JWT;
// the row exists so sign-out can revoke it before expiry.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// GoogleClaims contains the relevant claims from a Google ID token.
type GoogleClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}
