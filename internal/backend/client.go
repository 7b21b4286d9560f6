// Package backend defines the capability interface the client-side auth core
// consumes: credential verification, session issuance, profile row access, and
// auth-state-change notification. The production implementation talks to the
// Dialogues REST API; tests substitute fakes.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dialogues/internal/profiles"
)

// User identifies an authenticated principal as reported by the backend.
type User struct {
	ID       uuid.UUID         `json:"id"`
	Email    string            `json:"email,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Session is a live credential context. It is owned by the auth state machine
// and never mutated by UI code.
type Session struct {
	User        User      `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthEvent names an auth-state-change notification.
type AuthEvent string

const (
	// EventSignedIn reports that a session was established.
	EventSignedIn AuthEvent = "SIGNED_IN"
	// EventSignedOut reports that the session was lost or revoked.
	EventSignedOut AuthEvent = "SIGNED_OUT"
)

// AuthChangeHandler receives auth-state-change notifications. Delivery is
// asynchronous: a handler must not assume it runs before the triggering
// call returns.
type AuthChangeHandler func(event AuthEvent, session *Session)

// Client is the session capability of the backend service.
type Client interface {
	// SignInWithPassword verifies credentials and establishes a session.
	// The new session is reported through OnAuthStateChange, not returned.
	SignInWithPassword(ctx context.Context, email, password string) error

	// SignUp creates an account and establishes its first session. The
	// created user is returned so the caller can provision a profile.
	SignUp(ctx context.Context, email, password string) (*User, error)

	// SignOut revokes the current session. On failure the local session is
	// kept so the caller can retry.
	SignOut(ctx context.Context) error

	// GetUser revalidates the current session against the backend and
	// returns its user, or nil when no valid session exists.
	GetUser(ctx context.Context) (*User, error)

	// GetSession returns a snapshot of the current session, or nil.
	GetSession() *Session

	// OnAuthStateChange subscribes to session transitions. The returned
	// function cancels the subscription.
	OnAuthStateChange(handler AuthChangeHandler) (unsubscribe func())
}

// ProfileStore is the row-query capability of the backend service, typed to
// the profile table. Find operations use maybe-one semantics: a missing row
// is (nil, nil), not an error.
type ProfileStore interface {
	FindProfileByUserID(ctx context.Context, userID uuid.UUID) (*profiles.Profile, error)
	FindProfileByUsername(ctx context.Context, username string) (*profiles.Profile, error)
	InsertProfile(ctx context.Context, profile profiles.Profile) (profiles.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, update profiles.Update) error
}

// APIError reports a non-2xx response from the backend service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}
