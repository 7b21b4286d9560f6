package dialogues

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// InMemoryRepository stores dialogues in an in-process map, ideal for local
// development or tests.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[uuid.UUID]Dialogue
}

// NewInMemoryRepository constructs a repository seeded with optional dialogues.
func NewInMemoryRepository(initial []Dialogue) *InMemoryRepository {
	data := make(map[uuid.UUID]Dialogue, len(initial))
	for _, d := range initial {
		data[d.ID] = d
	}
	return &InMemoryRepository{data: data}
}

// Create stores a new dialogue.
func (r *InMemoryRepository) Create(_ context.Context, dialogue Dialogue) (Dialogue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[dialogue.ID] = dialogue
	return dialogue, nil
}

// Get returns a dialogue by ID.
func (r *InMemoryRepository) Get(_ context.Context, id uuid.UUID) (Dialogue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dialogue, ok := r.data[id]
	if !ok {
		return Dialogue{}, ErrNotFound
	}
	return dialogue, nil
}

// List returns the most recent dialogues.
func (r *InMemoryRepository) List(_ context.Context, limit int) ([]Dialogue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Dialogue, 0, len(r.data))
	for _, d := range r.data {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByAuthor returns all dialogues written by the given profile.
func (r *InMemoryRepository) ListByAuthor(_ context.Context, authorProfileID int64) ([]Dialogue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Dialogue, 0)
	for _, d := range r.data {
		if d.AuthorProfileID == authorProfileID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
