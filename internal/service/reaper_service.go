package service

import (
	"context"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/storage"
)

type reaperJobStore interface {
	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.DownloadJob, error)
	Delete(ctx context.Context, id string) error
}

type reaperAlbumStore interface {
	ListExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Album, error)
	AddStorageUsed(ctx context.Context, id string, delta int64) error
}

type reaperMetrics interface {
	AddReapedArchives(n int)
	AddReapedMedia(n int)
}

// ReaperConfig tunes the background cleanup sweeps.
type ReaperConfig struct {
	Interval         time.Duration
	RetentionWindow  time.Duration
	MediaGracePeriod time.Duration
	BatchLimit       int
}

// Reaper removes expired export archives and purges media of albums past
// their retention window. Both sweeps run on one ticker and are safe to
// repeat: work that fails mid-way is picked up again on the next pass.
type Reaper struct {
	jobs       reaperJobStore
	albums     reaperAlbumStore
	media      mediaStore
	deleteLogs deleteLogStore
	store      blobStore
	cfg        ReaperConfig
	metrics    reaperMetrics
	logger     *zap.Logger
}

// NewReaper constructs the reaper.
func NewReaper(jobs reaperJobStore, albums reaperAlbumStore, media mediaStore, deleteLogs deleteLogStore, store blobStore, cfg ReaperConfig, metrics reaperMetrics, logger *zap.Logger) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.RetentionWindow <= 0 {
		cfg.RetentionWindow = 7 * 24 * time.Hour
	}
	if cfg.MediaGracePeriod <= 0 {
		cfg.MediaGracePeriod = 7 * 24 * time.Hour
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{
		jobs:       jobs,
		albums:     albums,
		media:      media,
		deleteLogs: deleteLogs,
		store:      store,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// Start launches the periodic sweep until the context is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		r.logger.Sugar().Infow("reaper started", "interval", r.cfg.Interval)
		for {
			select {
			case <-ctx.Done():
				r.logger.Info("reaper stopped")
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce executes both sweeps a single time.
func (r *Reaper) RunOnce(ctx context.Context) {
	if err := r.reapExpiredExports(ctx); err != nil {
		r.logger.Error("export sweep failed", zap.Error(err))
	}
	if err := r.purgeExpiredAlbumMedia(ctx); err != nil {
		r.logger.Error("media sweep failed", zap.Error(err))
	}
}

// reapExpiredExports deletes archives of exports past their download
// window, then the job rows. A row is only removed once every one of its
// blobs is gone, so a partial failure leaves it for the next pass.
func (r *Reaper) reapExpiredExports(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-r.cfg.RetentionWindow)
	expired, err := r.jobs.ListCompletedBefore(ctx, cutoff, r.cfg.BatchLimit)
	if err != nil {
		return err
	}

	for _, job := range expired {
		removed := 0
		blocked := false
		for _, key := range job.ArchiveKeys {
			if err := r.store.Delete(ctx, key); err != nil && !stderrors.Is(err, storage.ErrNotFound) {
				r.logger.Error("failed to delete expired archive",
					zap.String("job_id", job.ID),
					zap.String("key", key),
					zap.Error(err))
				blocked = true
				continue
			}
			removed++
		}
		if blocked {
			continue
		}

		if err := r.jobs.Delete(ctx, job.ID); err != nil {
			r.logger.Error("failed to delete expired job row", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		if r.metrics != nil {
			r.metrics.AddReapedArchives(removed)
		}
		r.logger.Info("reaped expired export",
			zap.String("job_id", job.ID),
			zap.Int("archives", removed))
	}
	return nil
}

// purgeExpiredAlbumMedia physically removes guest media once an album has
// been expired longer than the grace period. Every removal leaves an audit
// log row.
func (r *Reaper) purgeExpiredAlbumMedia(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-r.cfg.MediaGracePeriod)
	albums, err := r.albums.ListExpiredBefore(ctx, cutoff, r.cfg.BatchLimit)
	if err != nil {
		return err
	}

	for _, album := range albums {
		items, err := r.media.ListActiveByAlbum(ctx, album.ID)
		if err != nil {
			r.logger.Error("failed to list expired album media", zap.String("album_id", album.ID), zap.Error(err))
			continue
		}

		purged := 0
		var freed int64
		for _, item := range items {
			if item.StorageKey != "" {
				if err := r.store.Delete(ctx, item.StorageKey); err != nil && !stderrors.Is(err, storage.ErrNotFound) {
					r.logger.Error("failed to delete expired media blob",
						zap.Int64("media_id", item.ID),
						zap.Error(err))
					continue
				}
			}

			now := time.Now().UTC()
			if err := r.media.SoftDelete(ctx, item.ID, now); err != nil {
				r.logger.Error("failed to soft delete expired media", zap.Int64("media_id", item.ID), zap.Error(err))
				continue
			}
			logEntry := &models.MediaDeleteLog{
				MediaID:      item.ID,
				AlbumID:      album.ID,
				StorageKey:   item.StorageKey,
				DeleteReason: models.DeleteReasonExpired,
				DeletedAt:    now,
			}
			if err := r.deleteLogs.Create(ctx, logEntry); err != nil {
				r.logger.Error("failed to write delete log", zap.Int64("media_id", item.ID), zap.Error(err))
			}
			purged++
			freed += item.FileSize
		}

		if freed > 0 {
			if err := r.albums.AddStorageUsed(ctx, album.ID, -freed); err != nil {
				r.logger.Error("failed to release storage usage", zap.String("album_id", album.ID), zap.Error(err))
			}
		}
		if r.metrics != nil {
			r.metrics.AddReapedMedia(purged)
		}
		r.logger.Info("purged expired album media",
			zap.String("album_id", album.ID),
			zap.Int("media", purged))
	}
	return nil
}
