package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gsh519/wedding-snap/internal/models"
)

const downloadJobColumns = `id, user_id, album_id, secret_token, status, retry_count, created_at,
completed_at, downloaded_at, total_files, archive_count, archive_keys`

// DownloadJobRepository persists export job records.
type DownloadJobRepository struct {
	db *sqlx.DB
}

// NewDownloadJobRepository constructs the repository.
func NewDownloadJobRepository(db *sqlx.DB) *DownloadJobRepository {
	return &DownloadJobRepository{db: db}
}

// Create inserts a new job row with generated defaults.
func (r *DownloadJobRepository) Create(ctx context.Context, job *models.DownloadJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO download_jobs (id, user_id, album_id, secret_token, status, retry_count, created_at, completed_at, downloaded_at, total_files, archive_count, archive_keys)
VALUES (:id, :user_id, :album_id, :secret_token, :status, :retry_count, :created_at, :completed_at, :downloaded_at, :total_files, :archive_count, :archive_keys)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create download job: %w", err)
	}
	return nil
}

// GetByID returns a job row by its identifier.
func (r *DownloadJobRepository) GetByID(ctx context.Context, id string) (*models.DownloadJob, error) {
	query := fmt.Sprintf("SELECT %s FROM download_jobs WHERE id = $1", downloadJobColumns)
	var job models.DownloadJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetBySecretToken resolves the capability token to a job row.
func (r *DownloadJobRepository) GetBySecretToken(ctx context.Context, token string) (*models.DownloadJob, error) {
	query := fmt.Sprintf("SELECT %s FROM download_jobs WHERE secret_token = $1", downloadJobColumns)
	var job models.DownloadJob
	if err := r.db.GetContext(ctx, &job, query, token); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetLatestByAlbum returns the most recently created job for an album.
func (r *DownloadJobRepository) GetLatestByAlbum(ctx context.Context, albumID string) (*models.DownloadJob, error) {
	query := fmt.Sprintf("SELECT %s FROM download_jobs WHERE album_id = $1 ORDER BY created_at DESC LIMIT 1", downloadJobColumns)
	var job models.DownloadJob
	if err := r.db.GetContext(ctx, &job, query, albumID); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateDownloadJobParams defines the mutable fields. Nil means unchanged,
// so concurrent writers never clobber fields they did not touch.
type UpdateDownloadJobParams struct {
	Status       *models.JobStatus
	RetryCount   *int
	CompletedAt  *time.Time
	DownloadedAt *time.Time
	TotalFiles   *int
	ArchiveCount *int
	ArchiveKeys  models.ArchiveKeys
}

// Update persists the provided changes for a job row.
func (r *DownloadJobRepository) Update(ctx context.Context, id string, params UpdateDownloadJobParams) error {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.RetryCount != nil {
		set = append(set, fmt.Sprintf("retry_count = $%d", argPos))
		args = append(args, *params.RetryCount)
		argPos++
	}
	if params.CompletedAt != nil {
		set = append(set, fmt.Sprintf("completed_at = $%d", argPos))
		args = append(args, *params.CompletedAt)
		argPos++
	}
	if params.DownloadedAt != nil {
		set = append(set, fmt.Sprintf("downloaded_at = $%d", argPos))
		args = append(args, *params.DownloadedAt)
		argPos++
	}
	if params.TotalFiles != nil {
		set = append(set, fmt.Sprintf("total_files = $%d", argPos))
		args = append(args, *params.TotalFiles)
		argPos++
	}
	if params.ArchiveCount != nil {
		set = append(set, fmt.Sprintf("archive_count = $%d", argPos))
		args = append(args, *params.ArchiveCount)
		argPos++
	}
	if params.ArchiveKeys != nil {
		set = append(set, fmt.Sprintf("archive_keys = $%d", argPos))
		args = append(args, params.ArchiveKeys)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE download_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update download job: %w", err)
	}
	return nil
}

// ClaimPending atomically flips a PENDING job to PROCESSING. The returned
// flag is false when another worker already claimed it or the job reached a
// terminal state, which makes duplicate queue deliveries harmless.
func (r *DownloadJobRepository) ClaimPending(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE download_jobs SET status = 'PROCESSING' WHERE id = $1 AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("claim download job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check claim rows: %w", err)
	}
	return affected == 1, nil
}

// Delete hard-deletes a job row. Used only by the reaper.
func (r *DownloadJobRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM download_jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete download job: %w", err)
	}
	return nil
}

// ListCompletedBefore retrieves completed jobs past the retention cutoff.
func (r *DownloadJobRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.DownloadJob, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM download_jobs
WHERE status = 'COMPLETED' AND completed_at IS NOT NULL AND completed_at < $1
ORDER BY completed_at ASC LIMIT $2`, downloadJobColumns)
	var jobs []models.DownloadJob
	if err := r.db.SelectContext(ctx, &jobs, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list expired download jobs: %w", err)
	}
	return jobs, nil
}

// ListPending fetches pending jobs (used for cold start recovery).
func (r *DownloadJobRepository) ListPending(ctx context.Context, limit int) ([]models.DownloadJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM download_jobs WHERE status = 'PENDING' ORDER BY created_at ASC LIMIT $1`, downloadJobColumns)
	var jobs []models.DownloadJob
	if err := r.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("list pending download jobs: %w", err)
	}
	return jobs, nil
}
