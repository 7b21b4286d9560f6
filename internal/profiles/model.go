package profiles

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrUsernameTaken is returned when inserting a profile whose username already
// exists. The insert-time check is authoritative: the username allocator's
// probe has a race window, and a collision at insert must fail loudly.
var ErrUsernameTaken = errors.New("username already taken")

// ErrNotFound is returned when updating a profile that does not exist.
var ErrNotFound = errors.New("profile not found")

// Profile is the application-level user record keyed by account identity.
// A user may transiently exist without a profile while sign-up is in flight.
type Profile struct {
	ID        int64     `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Bio       string    `json:"bio,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Update carries the mutable profile fields. Nil pointers leave the stored
// value untouched.
type Update struct {
	Username *string `json:"username,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

// IsEmpty reports whether the update would change nothing.
func (u Update) IsEmpty() bool {
	return u.Username == nil && u.Bio == nil && u.Avatar == nil
}
