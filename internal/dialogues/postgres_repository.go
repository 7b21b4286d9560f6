package dialogues

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new dialogue.
func (r *PostgresRepository) Create(ctx context.Context, dialogue Dialogue) (Dialogue, error) {
	const query = `
		INSERT INTO dialogues (id, author_profile_id, title, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		dialogue.ID,
		dialogue.AuthorProfileID,
		dialogue.Title,
		dialogue.Content,
		dialogue.CreatedAt,
	)
	if err != nil {
		return Dialogue{}, err
	}
	return dialogue, nil
}

// Get returns a dialogue by ID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Dialogue, error) {
	const query = `
		SELECT id, author_profile_id, title, content, created_at
		FROM dialogues
		WHERE id = $1
	`

	var row dialogueRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Dialogue{}, ErrNotFound
		}
		return Dialogue{}, err
	}
	return row.toDialogue(), nil
}

// List returns the most recent dialogues.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Dialogue, error) {
	const query = `
		SELECT id, author_profile_id, title, content, created_at
		FROM dialogues
		ORDER BY created_at DESC
		LIMIT $1
	`

	var rows []dialogueRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, err
	}

	out := make([]Dialogue, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDialogue())
	}
	return out, nil
}

// ListByAuthor returns all dialogues written by the given profile.
func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorProfileID int64) ([]Dialogue, error) {
	const query = `
		SELECT id, author_profile_id, title, content, created_at
		FROM dialogues
		WHERE author_profile_id = $1
		ORDER BY created_at DESC
	`

	var rows []dialogueRow
	if err := r.db.SelectContext(ctx, &rows, query, authorProfileID); err != nil {
		return nil, err
	}

	out := make([]Dialogue, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDialogue())
	}
	return out, nil
}

// dialogueRow is a database row representation of Dialogue.
type dialogueRow struct {
	ID              uuid.UUID `db:"id"`
	AuthorProfileID int64     `db:"author_profile_id"`
	Title           string    `db:"title"`
	Content         string    `db:"content"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r *dialogueRow) toDialogue() Dialogue {
	return Dialogue{
		ID:              r.ID,
		AuthorProfileID: r.AuthorProfileID,
		Title:           r.Title,
		Content:         r.Content,
		CreatedAt:       r.CreatedAt,
	}
}
