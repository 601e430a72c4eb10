package postgres

import (
	"context"
	"database/sql"

	"supportbot/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// EnsureUserExists creates user if not exists
func (r *UserRepo) EnsureUserExists(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// GetUser returns the user or nil if it does not exist
func (r *UserRepo) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	query := `SELECT user_id, language, COALESCE(email, ''), created_at FROM users WHERE user_id = $1`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&u.UserID, &u.Language, &u.Email, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetLanguage returns user's interface language, empty if user is unknown
func (r *UserRepo) GetLanguage(ctx context.Context, userID int64) (string, error) {
	var language string
	query := `SELECT language FROM users WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&language)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	return language, nil
}

// SetLanguage stores user's interface language
func (r *UserRepo) SetLanguage(ctx context.Context, userID int64, language string) error {
	query := `
		INSERT INTO users (user_id, language)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET language = EXCLUDED.language
	`
	_, err := r.db.ExecContext(ctx, query, userID, language)
	return err
}

// SetEmail stores verified contact email
func (r *UserRepo) SetEmail(ctx context.Context, userID int64, email string) error {
	query := `UPDATE users SET email = $2 WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, email)
	return err
}
