package dialogues

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a dialogue cannot be located.
var ErrNotFound = errors.New("dialogue not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// ValidationError wraps a validation message so callers can distinguish
// client errors from internal failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Dialogue is a published article.
type Dialogue struct {
	ID              uuid.UUID `json:"id"`
	AuthorProfileID int64     `json:"author_profile_id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository defines the interface for dialogue persistence.
type Repository interface {
	Create(ctx context.Context, dialogue Dialogue) (Dialogue, error)
	Get(ctx context.Context, id uuid.UUID) (Dialogue, error)
	List(ctx context.Context, limit int) ([]Dialogue, error)
	ListByAuthor(ctx context.Context, authorProfileID int64) ([]Dialogue, error)
}
