package profiles

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for profile persistence.
//
// FindByUserID and FindByUsername use maybe-one semantics: a missing row is
// (nil, nil), not an error. Callers treat absence as "no profile yet".
type Repository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	FindByUsername(ctx context.Context, username string) (*Profile, error)
	Insert(ctx context.Context, profile Profile) (Profile, error)
	Update(ctx context.Context, userID uuid.UUID, update Update) error
}
