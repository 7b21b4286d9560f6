package dialogues

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxTitleLength = 200
	defaultLimit   = 50
)

// Service provides dialogue business logic. It is deliberately thin: list and
// read operations are pass-through queries.
type Service struct {
	repo Repository
}

// NewService creates a new dialogues Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new dialogue.
func (s *Service) Create(ctx context.Context, authorProfileID int64, title, content string) (Dialogue, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Dialogue{}, &ValidationError{Message: "title is required"}
	}
	if len(title) > maxTitleLength {
		return Dialogue{}, &ValidationError{Message: fmt.Sprintf("title too long (max %d characters)", maxTitleLength)}
	}
	if strings.TrimSpace(content) == "" {
		return Dialogue{}, &ValidationError{Message: "content is required"}
	}
	if authorProfileID <= 0 {
		return Dialogue{}, &ValidationError{Message: "author profile is required"}
	}

	dialogue := Dialogue{
		ID:              uuid.New(),
		AuthorProfileID: authorProfileID,
		Title:           title,
		Content:         content,
		CreatedAt:       time.Now(),
	}

	created, err := s.repo.Create(ctx, dialogue)
	if err != nil {
		return Dialogue{}, fmt.Errorf("create dialogue: %w", err)
	}
	return created, nil
}

// Get returns a dialogue by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Dialogue, error) {
	return s.repo.Get(ctx, id)
}

// List returns the most recent dialogues.
func (s *Service) List(ctx context.Context, limit int) ([]Dialogue, error) {
	if limit <= 0 || limit > defaultLimit {
		limit = defaultLimit
	}
	return s.repo.List(ctx, limit)
}

// ListByAuthor returns all dialogues written by the given profile.
func (s *Service) ListByAuthor(ctx context.Context, authorProfileID int64) ([]Dialogue, error) {
	return s.repo.ListByAuthor(ctx, authorProfileID)
}
