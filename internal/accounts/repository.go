package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrEmailTaken is returned when registering an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// Repository defines the interface for user and session persistence.
type Repository interface {
	// User operations
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	FindUserByOAuth(ctx context.Context, provider, providerID string) (*User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUserSignIn(ctx context.Context, id uuid.UUID) error

	// Session operations
	CreateSession(ctx context.Context, session Session) error
	FindSessionByID(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
