package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gsh519/wedding-snap/internal/models"
)

// MediaDeleteLogRepository records physical media deletions.
type MediaDeleteLogRepository struct {
	db *sqlx.DB
}

// NewMediaDeleteLogRepository constructs the repository.
func NewMediaDeleteLogRepository(db *sqlx.DB) *MediaDeleteLogRepository {
	return &MediaDeleteLogRepository{db: db}
}

// Create appends one delete log row.
func (r *MediaDeleteLogRepository) Create(ctx context.Context, log *models.MediaDeleteLog) error {
	if log.DeletedAt.IsZero() {
		log.DeletedAt = time.Now().UTC()
	}
	const query = `INSERT INTO medias_delete_logs (media_id, album_id, storage_key, delete_reason, info, deleted_at)
VALUES (:media_id, :album_id, :storage_key, :delete_reason, :info, :deleted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create media delete log: %w", err)
	}
	return nil
}
