package profiles

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores profiles in process memory, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[uuid.UUID]Profile
}

// NewInMemoryRepository constructs an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byUser: make(map[uuid.UUID]Profile)}
}

// FindByUserID returns the profile for the given user, or nil when absent.
func (r *InMemoryRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if profile, ok := r.byUser[userID]; ok {
		return &profile, nil
	}
	return nil, nil
}

// FindByUsername returns the profile with the given username, or nil when absent.
func (r *InMemoryRepository) FindByUsername(_ context.Context, username string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, profile := range r.byUser {
		if profile.Username == username {
			p := profile
			return &p, nil
		}
	}
	return nil, nil
}

// Insert stores a new profile. A duplicate username or user ID surfaces as
// ErrUsernameTaken, mirroring the database's unique constraints.
func (r *InMemoryRepository) Insert(_ context.Context, profile Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUser[profile.UserID]; ok {
		return Profile{}, ErrUsernameTaken
	}
	for _, existing := range r.byUser {
		if existing.Username == profile.Username {
			return Profile{}, ErrUsernameTaken
		}
	}

	r.nextID++
	profile.ID = r.nextID
	r.byUser[profile.UserID] = profile
	return profile, nil
}

// Update applies the non-nil fields of the update to the user's profile.
func (r *InMemoryRepository) Update(_ context.Context, userID uuid.UUID, update Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.byUser[userID]
	if !ok {
		return ErrNotFound
	}

	if update.Username != nil && *update.Username != profile.Username {
		for _, existing := range r.byUser {
			if existing.Username == *update.Username {
				return ErrUsernameTaken
			}
		}
		profile.Username = *update.Username
	}
	if update.Bio != nil {
		profile.Bio = *update.Bio
	}
	if update.Avatar != nil {
		profile.Avatar = *update.Avatar
	}

	r.byUser[userID] = profile
	return nil
}
