package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gsh519/wedding-snap/internal/models"
)

const albumColumns = `id, user_id, slug, album_name, event_date, plan_type, storage_used,
storage_limit, download_count, expire_at, created_at`

// AlbumRepository handles album persistence.
type AlbumRepository struct {
	db *sqlx.DB
}

// NewAlbumRepository constructs the repository.
func NewAlbumRepository(db *sqlx.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// Create inserts a new album row.
func (r *AlbumRepository) Create(ctx context.Context, album *models.Album) error {
	if album.ID == "" {
		album.ID = uuid.NewString()
	}
	if album.CreatedAt.IsZero() {
		album.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO albums (id, user_id, slug, album_name, event_date, plan_type, storage_used, storage_limit, download_count, expire_at, created_at)
VALUES (:id, :user_id, :slug, :album_name, :event_date, :plan_type, :storage_used, :storage_limit, :download_count, :expire_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, album); err != nil {
		return fmt.Errorf("create album: %w", err)
	}
	return nil
}

// GetByID returns one album row.
func (r *AlbumRepository) GetByID(ctx context.Context, id string) (*models.Album, error) {
	query := fmt.Sprintf("SELECT %s FROM albums WHERE id = $1", albumColumns)
	var album models.Album
	if err := r.db.GetContext(ctx, &album, query, id); err != nil {
		return nil, err
	}
	return &album, nil
}

// GetBySlug resolves a guest share link to an album.
func (r *AlbumRepository) GetBySlug(ctx context.Context, slug string) (*models.Album, error) {
	query := fmt.Sprintf("SELECT %s FROM albums WHERE slug = $1", albumColumns)
	var album models.Album
	if err := r.db.GetContext(ctx, &album, query, slug); err != nil {
		return nil, err
	}
	return &album, nil
}

// ListByOwner returns all albums belonging to a user.
func (r *AlbumRepository) ListByOwner(ctx context.Context, userID string) ([]models.Album, error) {
	query := fmt.Sprintf("SELECT %s FROM albums WHERE user_id = $1 ORDER BY created_at DESC", albumColumns)
	var albums []models.Album
	if err := r.db.SelectContext(ctx, &albums, query, userID); err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	return albums, nil
}

// AddStorageUsed adjusts the album's consumed byte counter.
func (r *AlbumRepository) AddStorageUsed(ctx context.Context, id string, delta int64) error {
	const query = `UPDATE albums SET storage_used = GREATEST(storage_used + $2, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta); err != nil {
		return fmt.Errorf("adjust album storage: %w", err)
	}
	return nil
}

// IncrementDownloadCount bumps the bulk download counter once per first
// retrieval of a completed export.
func (r *AlbumRepository) IncrementDownloadCount(ctx context.Context, id string) error {
	const query = `UPDATE albums SET download_count = download_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	return nil
}

// ListExpiredBefore returns albums whose retention window ended before the
// cutoff and that still hold undeleted media.
func (r *AlbumRepository) ListExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Album, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM albums a WHERE a.expire_at < $1
AND EXISTS (SELECT 1 FROM medias m WHERE m.album_id = a.id AND m.deleted_at IS NULL)
ORDER BY a.expire_at ASC LIMIT $2`, albumColumns)
	var albums []models.Album
	if err := r.db.SelectContext(ctx, &albums, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list expired albums: %w", err)
	}
	return albums, nil
}
