package authstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"dialogues/internal/backend"
)

// ErrUsernameExhausted is returned when every probed username variant collides.
var ErrUsernameExhausted = errors.New("no available username variant")

// DefaultMaxUsernameAttempts bounds the allocator's probe loop.
const DefaultMaxUsernameAttempts = 10

// AllocateUsername probes base, base1, base2, ... against the profile store
// and returns the first candidate with no match.
//
// This is check-then-act: two concurrent sign-ups sharing a base can both
// observe "no match" for the same candidate. The insert-time uniqueness check
// stays authoritative; a collision there must fail the sign-up, not be
// papered over here.
func AllocateUsername(ctx context.Context, store backend.ProfileStore, base string, maxAttempts int) (string, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxUsernameAttempts
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = base + strconv.Itoa(attempt)
		}

		existing, err := store.FindProfileByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe username %q: %w", candidate, err)
		}
		if existing == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w for base %q after %d attempts", ErrUsernameExhausted, base, maxAttempts)
}
