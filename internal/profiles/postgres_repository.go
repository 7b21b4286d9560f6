package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByUserID returns the profile for the given user, or nil when absent.
func (r *PostgresRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	const query = `
		SELECT id, user_id, username, bio, avatar, created_at
		FROM profiles
		WHERE user_id = $1
	`

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toProfile(), nil
}

// FindByUsername returns the profile with the given username, or nil when absent.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*Profile, error) {
	const query = `
		SELECT id, user_id, username, bio, avatar, created_at
		FROM profiles
		WHERE username = $1
	`

	var row profileRow
	if err := r.db.GetContext(ctx, &row, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return row.toProfile(), nil
}

// Insert stores a new profile and returns it with its assigned ID.
// A username collision surfaces as ErrUsernameTaken.
func (r *PostgresRepository) Insert(ctx context.Context, profile Profile) (Profile, error) {
	const query = `
		INSERT INTO profiles (user_id, username, bio, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Username,
		profile.Bio,
		profile.Avatar,
		profile.CreatedAt,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return Profile{}, ErrUsernameTaken
		}
		return Profile{}, err
	}

	profile.ID = id
	return profile, nil
}

// Update applies the non-nil fields of the update to the user's profile.
func (r *PostgresRepository) Update(ctx context.Context, userID uuid.UUID, update Update) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	args = append(args, userID)

	if update.Username != nil {
		args = append(args, *update.Username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if update.Bio != nil {
		args = append(args, *update.Bio)
		sets = append(sets, fmt.Sprintf("bio = $%d", len(args)))
	}
	if update.Avatar != nil {
		args = append(args, *update.Avatar)
		sets = append(sets, fmt.Sprintf("avatar = $%d", len(args)))
	}

	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE user_id = $1`, strings.Join(sets, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrUsernameTaken
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// profileRow is a database row representation of Profile.
type profileRow struct {
	ID        int64     `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Username  string    `db:"username"`
	Bio       string    `db:"bio"`
	Avatar    string    `db:"avatar"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *profileRow) toProfile() *Profile {
	return &Profile{
		ID:        r.ID,
		UserID:    r.UserID,
		Username:  r.Username,
		Bio:       r.Bio,
		Avatar:    r.Avatar,
		CreatedAt: r.CreatedAt,
	}
}
