package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"go.uber.org/zap"

	"github.com/gsh519/wedding-snap/internal/dto"
	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/config"
	"github.com/gsh519/wedding-snap/pkg/errors"
	"github.com/gsh519/wedding-snap/pkg/storage"
)

// Guests upload straight to object storage; the service only validates and
// hands out presigned URLs, so oversized or mistyped files are rejected
// before any bytes move.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/heic":      true,
	"video/mp4":       true,
	"video/quicktime": true,
}

type mediaStore interface {
	Create(ctx context.Context, media *models.Media) error
	GetByID(ctx context.Context, id int64) (*models.Media, error)
	UpdateStorageKey(ctx context.Context, id int64, key string) error
	ListActiveByAlbum(ctx context.Context, albumID string) ([]models.Media, error)
	SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error
}

type mediaAlbumStore interface {
	GetByID(ctx context.Context, id string) (*models.Album, error)
	GetBySlug(ctx context.Context, slug string) (*models.Album, error)
	AddStorageUsed(ctx context.Context, id string, delta int64) error
}

type deleteLogStore interface {
	Create(ctx context.Context, log *models.MediaDeleteLog) error
}

type presignStore interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// MediaService validates guest uploads and manages media lifecycle.
type MediaService struct {
	repo       mediaStore
	albums     mediaAlbumStore
	deleteLogs deleteLogStore
	store      presignStore
	cfg        config.AlbumsConfig
	logger     *zap.Logger
}

// NewMediaService constructs the service.
func NewMediaService(repo mediaStore, albums mediaAlbumStore, deleteLogs deleteLogStore, store presignStore, cfg config.AlbumsConfig, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{
		repo:       repo,
		albums:     albums,
		deleteLogs: deleteLogs,
		store:      store,
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterUpload validates an announced guest upload and returns a
// presigned PUT URL. The media row is created first so the storage key can
// embed the database id; the album's usage counter is bumped optimistically
// at registration time.
func (s *MediaService) RegisterUpload(ctx context.Context, slug string, req dto.RegisterMediaRequest) (*dto.RegisterMediaResponse, error) {
	album, err := s.albums.GetBySlug(ctx, slug)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load album")
	}
	if album.Expired(time.Now().UTC()) {
		return nil, errors.ErrAlbumExpired
	}

	if !allowedMimeTypes[req.MimeType] {
		return nil, errors.Clone(errors.ErrValidation, "unsupported file type")
	}
	if err := s.checkSize(req.MimeType, req.FileSize); err != nil {
		return nil, err
	}
	if album.StorageUsed+req.FileSize > album.StorageLimit {
		return nil, errors.ErrStorageLimit
	}

	media := &models.Media{
		AlbumID:  album.ID,
		FileName: req.FileName,
		MimeType: req.MimeType,
		FileSize: req.FileSize,
	}
	if req.UploadUserName != "" {
		media.UploadUserName = &req.UploadUserName
	}
	if err := s.repo.Create(ctx, media); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to register media")
	}

	key := storage.MediaKey(album.ID, media.ID, req.FileName)
	if err := s.repo.UpdateStorageKey(ctx, media.ID, key); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to assign storage key")
	}
	if err := s.albums.AddStorageUsed(ctx, album.ID, req.FileSize); err != nil {
		s.logger.Error("failed to bump storage usage", zap.String("album_id", album.ID), zap.Error(err))
	}

	uploadURL, err := s.store.PresignPut(ctx, key, req.MimeType)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to presign upload")
	}

	return &dto.RegisterMediaResponse{MediaID: media.ID, UploadURL: uploadURL}, nil
}

// ListByAlbum returns the active media of an album with short-lived view
// URLs. Rows whose upload never finished have no storage key and are
// returned without a URL.
func (s *MediaService) ListByAlbum(ctx context.Context, albumID string) ([]dto.MediaView, error) {
	items, err := s.repo.ListActiveByAlbum(ctx, albumID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to list media")
	}

	views := make([]dto.MediaView, 0, len(items))
	for _, item := range items {
		view := dto.MediaView{
			ID:        item.ID,
			FileName:  item.FileName,
			MimeType:  item.MimeType,
			FileSize:  item.FileSize,
			CreatedAt: item.CreatedAt,
		}
		if item.UploadUserName != nil {
			view.UploadUserName = *item.UploadUserName
		}
		if item.StorageKey != "" {
			url, err := s.store.PresignGet(ctx, item.StorageKey)
			if err != nil {
				s.logger.Warn("failed to presign media view",
					zap.Int64("media_id", item.ID),
					zap.Error(err))
			} else {
				view.ViewURL = url
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Delete removes one media item on the owner's request: blob first, then
// soft delete, then the audit log entry.
func (s *MediaService) Delete(ctx context.Context, userID string, mediaID int64) error {
	media, err := s.repo.GetByID(ctx, mediaID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.ErrNotFound
		}
		return errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load media")
	}

	album, err := s.albums.GetByID(ctx, media.AlbumID)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load album")
	}
	if album.UserID != userID {
		return errors.ErrForbidden
	}

	if media.StorageKey != "" {
		if err := s.store.Delete(ctx, media.StorageKey); err != nil {
			return errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to delete media blob")
		}
	}

	now := time.Now().UTC()
	if err := s.repo.SoftDelete(ctx, mediaID, now); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.ErrNotFound
		}
		return errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to delete media")
	}
	if err := s.albums.AddStorageUsed(ctx, media.AlbumID, -media.FileSize); err != nil {
		s.logger.Error("failed to release storage usage", zap.String("album_id", media.AlbumID), zap.Error(err))
	}

	logEntry := &models.MediaDeleteLog{
		MediaID:      media.ID,
		AlbumID:      media.AlbumID,
		StorageKey:   media.StorageKey,
		DeleteReason: models.DeleteReasonManual,
		DeletedAt:    now,
	}
	if err := s.deleteLogs.Create(ctx, logEntry); err != nil {
		s.logger.Error("failed to write delete log", zap.Int64("media_id", media.ID), zap.Error(err))
	}

	return nil
}

func (s *MediaService) checkSize(mimeType string, size int64) error {
	isVideo := mimeType == "video/mp4" || mimeType == "video/quicktime"
	if isVideo {
		if size > s.cfg.MaxVideoSize {
			return errors.Clone(errors.ErrValidation, "video exceeds the size limit")
		}
		return nil
	}
	if size > s.cfg.MaxImageSize {
		return errors.Clone(errors.ErrValidation, "image exceeds the size limit")
	}
	return nil
}
