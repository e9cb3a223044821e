package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gsh519/wedding-snap/internal/models"
)

const mediaColumns = `id, album_id, upload_user_name, storage_key, file_name, mime_type, file_size, created_at, deleted_at`

// MediaRepository handles media metadata persistence.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository constructs the repository.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create inserts a media row and fills in the generated identifier.
func (r *MediaRepository) Create(ctx context.Context, media *models.Media) error {
	if media.CreatedAt.IsZero() {
		media.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO medias (album_id, upload_user_name, storage_key, file_name, mime_type, file_size, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		media.AlbumID, media.UploadUserName, media.StorageKey, media.FileName,
		media.MimeType, media.FileSize, media.CreatedAt,
	).Scan(&media.ID); err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	return nil
}

// GetByID returns one media row.
func (r *MediaRepository) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	query := fmt.Sprintf("SELECT %s FROM medias WHERE id = $1", mediaColumns)
	var media models.Media
	if err := r.db.GetContext(ctx, &media, query, id); err != nil {
		return nil, err
	}
	return &media, nil
}

// UpdateStorageKey rewrites the object key after the identifier is known.
func (r *MediaRepository) UpdateStorageKey(ctx context.Context, id int64, key string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE medias SET storage_key = $2 WHERE id = $1`, id, key); err != nil {
		return fmt.Errorf("update media storage key: %w", err)
	}
	return nil
}

// ListActiveByAlbum returns all non-deleted media for an album in creation
// order. The ordering is stable on purpose: a retried export derives its
// batches from a fresh query and must see the items in the same sequence.
func (r *MediaRepository) ListActiveByAlbum(ctx context.Context, albumID string) ([]models.Media, error) {
	query := fmt.Sprintf("SELECT %s FROM medias WHERE album_id = $1 AND deleted_at IS NULL ORDER BY id ASC", mediaColumns)
	var records []models.Media
	if err := r.db.SelectContext(ctx, &records, query, albumID); err != nil {
		return nil, fmt.Errorf("list album media: %w", err)
	}
	return records, nil
}

// SoftDelete marks a media row as deleted.
func (r *MediaRepository) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	const query = `UPDATE medias SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return fmt.Errorf("soft delete media: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check media delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
