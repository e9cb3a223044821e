package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gsh519/wedding-snap/internal/models"
)

// UserRepository handles user rows. Identity verification happens outside
// this service; rows are mirrored here on first sight of a verified token.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts or refreshes the mirrored identity row.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (id, email, display_name, created_at)
VALUES (:id, :email, :display_name, :created_at)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// GetByID returns one user row.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, display_name, created_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}
