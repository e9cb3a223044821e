package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/internal/repository"
	"github.com/gsh519/wedding-snap/pkg/errors"
	"github.com/gsh519/wedding-snap/pkg/jobs"
	"github.com/gsh519/wedding-snap/pkg/mailer"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.DownloadJob) error
	GetByID(ctx context.Context, id string) (*models.DownloadJob, error)
	GetBySecretToken(ctx context.Context, token string) (*models.DownloadJob, error)
	GetLatestByAlbum(ctx context.Context, albumID string) (*models.DownloadJob, error)
	Update(ctx context.Context, id string, params repository.UpdateDownloadJobParams) error
	ClaimPending(ctx context.Context, id string) (bool, error)
	ListPending(ctx context.Context, limit int) ([]models.DownloadJob, error)
}

type exportAlbumStore interface {
	GetByID(ctx context.Context, id string) (*models.Album, error)
	IncrementDownloadCount(ctx context.Context, id string) error
}

type exportMediaStore interface {
	ListActiveByAlbum(ctx context.Context, albumID string) ([]models.Media, error)
}

type exportUserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type batchArchiver interface {
	Build(ctx context.Context, albumID string, batchIndex int, nonce string, items []models.Media) (string, int, error)
}

type readyNotifier interface {
	NotifyJobReady(ctx context.Context, n mailer.JobReadyNotification) error
}

type exportMetrics interface {
	ObserveExportOutcome(outcome string)
	AddArchivesBuilt(n int)
}

// ExportConfig tunes the export pipeline behaviour.
type ExportConfig struct {
	BatchSize         int
	MaxRetries        int
	RetentionWindow   time.Duration
	FreeDownloadLimit int
	DownloadBase      string
}

func (c *ExportConfig) applyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetentionWindow <= 0 {
		c.RetentionWindow = 7 * 24 * time.Hour
	}
	if c.FreeDownloadLimit <= 0 {
		c.FreeDownloadLimit = 1
	}
}

// ExportService owns the bulk download pipeline: owners create export jobs,
// the worker packs archives in the background, and guests with the secret
// token fetch the finished parts.
type ExportService struct {
	repo   exportJobStore
	albums exportAlbumStore
	store  blobStore
	queue  jobEnqueuer
	cfg    ExportConfig
	logger *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(repo exportJobStore, albums exportAlbumStore, store blobStore, queue jobEnqueuer, cfg ExportConfig, logger *zap.Logger) *ExportService {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		albums: albums,
		store:  store,
		queue:  queue,
		cfg:    cfg,
		logger: logger,
	}
}

// CreateJob records a new export request and hands it to the queue. Free
// albums get a limited number of bulk downloads; the check counts consumed
// downloads, not created jobs, so a failed export never burns the quota.
func (s *ExportService) CreateJob(ctx context.Context, userID, albumID string) (*models.DownloadJob, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load album")
	}
	if album.UserID != userID {
		return nil, errors.ErrForbidden
	}
	if album.PlanType == models.PlanFree && album.DownloadCount >= s.cfg.FreeDownloadLimit {
		return nil, errors.ErrQuotaExceeded
	}

	token, err := newSecretToken()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to generate download token")
	}

	job := &models.DownloadJob{
		UserID:      userID,
		AlbumID:     albumID,
		SecretToken: token,
		Status:      models.JobStatusPending,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, AlbumID: job.AlbumID}); err != nil {
		s.logger.Error("failed to enqueue export job", zap.String("job_id", job.ID), zap.Error(err))
		now := time.Now().UTC()
		failed := models.JobStatusFailed
		if updErr := s.repo.Update(ctx, job.ID, repository.UpdateDownloadJobParams{Status: &failed, CompletedAt: &now}); updErr != nil {
			s.logger.Error("failed to mark unqueued job failed", zap.String("job_id", job.ID), zap.Error(updErr))
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to queue export job")
	}

	return job, nil
}

// GetLatestJob returns the most recent export job of the owner's album.
func (s *ExportService) GetLatestJob(ctx context.Context, userID, albumID string) (*models.DownloadJob, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load album")
	}
	if album.UserID != userID {
		return nil, errors.ErrForbidden
	}

	job, err := s.repo.GetLatestByAlbum(ctx, albumID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// ArchivePart is one downloadable archive blob.
type ArchivePart struct {
	FileName    string
	ContentType string
	Data        []byte
}

// RetrieveArchive resolves a secret token plus part index to archive bytes.
// Callers get a distinct error for each rejection: unknown token, export not
// finished, retention window passed, or part index out of range.
//
// The first successful retrieval stamps downloadedAt and consumes one album
// download; later retrievals of any part reuse that stamp, so a multi-part
// export counts once.
func (s *ExportService) RetrieveArchive(ctx context.Context, token string, index int) (*ArchivePart, error) {
	job, err := s.repo.GetBySecretToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load export job")
	}

	if job.Status != models.JobStatusCompleted || job.CompletedAt == nil {
		return nil, errors.ErrExportNotReady
	}
	if time.Now().UTC().After(job.CompletedAt.Add(s.cfg.RetentionWindow)) {
		return nil, errors.ErrExportExpired
	}
	if index < 0 || index >= len(job.ArchiveKeys) {
		return nil, errors.ErrBadArchivePart
	}

	data, err := s.store.Get(ctx, job.ArchiveKeys[index])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to fetch archive")
	}

	if job.DownloadedAt == nil {
		now := time.Now().UTC()
		if err := s.repo.Update(ctx, job.ID, repository.UpdateDownloadJobParams{DownloadedAt: &now}); err != nil {
			s.logger.Error("failed to stamp download time", zap.String("job_id", job.ID), zap.Error(err))
		} else if err := s.albums.IncrementDownloadCount(ctx, job.AlbumID); err != nil {
			s.logger.Error("failed to count album download", zap.String("album_id", job.AlbumID), zap.Error(err))
		}
	}

	return &ArchivePart{
		FileName:    fmt.Sprintf("album-%s-part-%d.zip", job.AlbumID, index+1),
		ContentType: "application/zip",
		Data:        data,
	}, nil
}

// RecoverPendingJobs re-enqueues jobs left in PENDING by a previous process.
// The queue is memory-backed, so anything accepted but not finished before a
// restart only survives in the database.
func (s *ExportService) RecoverPendingJobs(ctx context.Context, limit int) error {
	pending, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return fmt.Errorf("list pending jobs: %w", err)
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, AlbumID: job.AlbumID, Attempt: job.RetryCount}); err != nil {
			return fmt.Errorf("requeue job %s: %w", job.ID, err)
		}
		s.logger.Info("recovered pending export job", zap.String("job_id", job.ID))
	}
	return nil
}

func newSecretToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RetryController routes export failures back through the persisted job
// record: below the cap the job returns to PENDING and is re-enqueued,
// at the cap it goes FAILED for good.
type RetryController struct {
	repo       exportJobStore
	queue      jobEnqueuer
	maxRetries int
	metrics    exportMetrics
	logger     *zap.Logger
}

// NewRetryController constructs the controller.
func NewRetryController(repo exportJobStore, queue jobEnqueuer, maxRetries int, metrics exportMetrics, logger *zap.Logger) *RetryController {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryController{repo: repo, queue: queue, maxRetries: maxRetries, metrics: metrics, logger: logger}
}

// OnFailure records one failed attempt. The retry count is read fresh from
// the database so restarts between attempts cannot reset the attempt
// history.
func (c *RetryController) OnFailure(ctx context.Context, jobID string, cause error) {
	job, err := c.repo.GetByID(ctx, jobID)
	if err != nil {
		c.logger.Error("failed to load job for retry bookkeeping", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	if job.Status.Terminal() {
		return
	}

	retries := job.RetryCount + 1
	if retries >= c.maxRetries {
		now := time.Now().UTC()
		failed := models.JobStatusFailed
		if err := c.repo.Update(ctx, jobID, repository.UpdateDownloadJobParams{Status: &failed, RetryCount: &retries, CompletedAt: &now}); err != nil {
			c.logger.Error("failed to mark job failed", zap.String("job_id", jobID), zap.Error(err))
			return
		}
		c.observe("failed")
		c.logger.Error("export job failed permanently",
			zap.String("job_id", jobID),
			zap.Int("retries", retries),
			zap.Error(cause))
		return
	}

	pending := models.JobStatusPending
	if err := c.repo.Update(ctx, jobID, repository.UpdateDownloadJobParams{Status: &pending, RetryCount: &retries}); err != nil {
		c.logger.Error("failed to reschedule job", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	if err := c.queue.Enqueue(jobs.Job{ID: jobID, AlbumID: job.AlbumID, Attempt: retries}); err != nil {
		// The job stays PENDING in the database and is picked up again by
		// startup recovery.
		c.logger.Error("failed to re-enqueue job", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	c.observe("retried")
	c.logger.Warn("export job attempt failed, retrying",
		zap.String("job_id", jobID),
		zap.Int("retries", retries),
		zap.Error(cause))
}

func (c *RetryController) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveExportOutcome(outcome)
	}
}

// ExportWorker processes queued export jobs: claim, batch, archive, persist.
type ExportWorker struct {
	repo    exportJobStore
	albums  exportAlbumStore
	media   exportMediaStore
	users   exportUserStore
	builder batchArchiver
	retry   *RetryController
	mail    readyNotifier
	cfg     ExportConfig
	metrics exportMetrics
	logger  *zap.Logger
}

// NewExportWorker constructs the worker.
func NewExportWorker(
	repo exportJobStore,
	albums exportAlbumStore,
	media exportMediaStore,
	users exportUserStore,
	builder batchArchiver,
	retry *RetryController,
	mail readyNotifier,
	cfg ExportConfig,
	metrics exportMetrics,
	logger *zap.Logger,
) *ExportWorker {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{
		repo:    repo,
		albums:  albums,
		media:   media,
		users:   users,
		builder: builder,
		retry:   retry,
		mail:    mail,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// Handle processes one queue delivery. Almost every failure is routed
// through the retry controller and swallowed; the error return is reserved
// for cases where the job record itself was unreadable, so the queue's own
// redelivery acts as a safety net.
func (w *ExportWorker) Handle(ctx context.Context, delivery jobs.Job) error {
	job, err := w.repo.GetByID(ctx, delivery.ID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			w.logger.Warn("queued export job no longer exists", zap.String("job_id", delivery.ID))
			return nil
		}
		return fmt.Errorf("load export job %s: %w", delivery.ID, err)
	}

	if job.Status != models.JobStatusPending {
		// Duplicate delivery, or the job already reached a terminal state.
		w.logger.Debug("skipping non-pending export job",
			zap.String("job_id", job.ID),
			zap.String("status", string(job.Status)))
		return nil
	}

	claimed, err := w.repo.ClaimPending(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("claim export job %s: %w", job.ID, err)
	}
	if !claimed {
		return nil
	}

	w.logger.Info("processing export job",
		zap.String("job_id", job.ID),
		zap.String("album_id", job.AlbumID),
		zap.Int("attempt", job.RetryCount+1))

	items, err := w.media.ListActiveByAlbum(ctx, job.AlbumID)
	if err != nil {
		w.retry.OnFailure(ctx, job.ID, fmt.Errorf("list album media: %w", err))
		return nil
	}

	if len(items) == 0 {
		// Nothing to pack, and retrying cannot change that.
		now := time.Now().UTC()
		failed := models.JobStatusFailed
		if err := w.repo.Update(ctx, job.ID, repository.UpdateDownloadJobParams{Status: &failed, CompletedAt: &now}); err != nil {
			w.logger.Error("failed to mark empty export failed", zap.String("job_id", job.ID), zap.Error(err))
			return nil
		}
		w.observe("empty")
		w.logger.Info("export job failed: album has no media", zap.String("job_id", job.ID))
		return nil
	}

	batches := SplitBatches(items, w.cfg.BatchSize)
	nonce, err := attemptNonce()
	if err != nil {
		w.retry.OnFailure(ctx, job.ID, err)
		return nil
	}

	keys := make(models.ArchiveKeys, 0, len(batches))
	totalWritten := 0
	for i, batch := range batches {
		key, written, err := w.builder.Build(ctx, job.AlbumID, i, nonce, batch)
		if err != nil {
			// Orphaned archives from this attempt stay in the store; the
			// nonce keeps the next attempt from colliding with them, and the
			// reaper never sees keys that were not persisted. Lifecycle rules
			// on the bucket prefix clean them up.
			w.retry.OnFailure(ctx, job.ID, fmt.Errorf("build archive %d: %w", i, err))
			return nil
		}
		keys = append(keys, key)
		totalWritten += written
	}

	now := time.Now().UTC()
	completed := models.JobStatusCompleted
	totalFiles := len(items)
	archiveCount := len(keys)
	err = w.repo.Update(ctx, job.ID, repository.UpdateDownloadJobParams{
		Status:       &completed,
		CompletedAt:  &now,
		TotalFiles:   &totalFiles,
		ArchiveCount: &archiveCount,
		ArchiveKeys:  keys,
	})
	if err != nil {
		w.retry.OnFailure(ctx, job.ID, fmt.Errorf("persist completion: %w", err))
		return nil
	}

	w.observe("completed")
	if w.metrics != nil {
		w.metrics.AddArchivesBuilt(archiveCount)
	}
	w.logger.Info("export job completed",
		zap.String("job_id", job.ID),
		zap.Int("total_files", totalFiles),
		zap.Int("archives", archiveCount),
		zap.Int("entries_written", totalWritten))

	w.notifyReady(ctx, job, totalFiles, archiveCount)
	return nil
}

// notifyReady emails the owner. Failures only get logged; the export is
// already completed and downloadable.
func (w *ExportWorker) notifyReady(ctx context.Context, job *models.DownloadJob, totalFiles, archiveCount int) {
	if w.mail == nil {
		return
	}

	album, err := w.albums.GetByID(ctx, job.AlbumID)
	if err != nil {
		w.logger.Error("failed to load album for notification", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	owner, err := w.users.GetByID(ctx, job.UserID)
	if err != nil {
		w.logger.Error("failed to load owner for notification", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	err = w.mail.NotifyJobReady(ctx, mailer.JobReadyNotification{
		JobID:        job.ID,
		Recipient:    owner.Email,
		AlbumName:    album.AlbumName,
		SecretToken:  job.SecretToken,
		ArchiveCount: archiveCount,
		TotalFiles:   totalFiles,
		DownloadBase: w.cfg.DownloadBase,
	})
	if err != nil {
		w.logger.Error("failed to send completion mail", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *ExportWorker) observe(outcome string) {
	if w.metrics != nil {
		w.metrics.ObserveExportOutcome(outcome)
	}
}

// attemptNonce scopes archive keys to one processing attempt so a retried
// job never overwrites blobs a concurrent reader might be streaming.
func attemptNonce() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
