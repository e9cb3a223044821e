package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gsh519/wedding-snap/internal/dto"
	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/config"
	"github.com/gsh519/wedding-snap/pkg/errors"
)

type albumStore interface {
	Create(ctx context.Context, album *models.Album) error
	GetByID(ctx context.Context, id string) (*models.Album, error)
	GetBySlug(ctx context.Context, slug string) (*models.Album, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Album, error)
}

type albumCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AlbumService manages album lifecycle and the guest-facing share view.
type AlbumService struct {
	repo   albumStore
	cache  albumCache
	cfg    config.AlbumsConfig
	logger *zap.Logger
}

// NewAlbumService constructs the service.
func NewAlbumService(repo albumStore, cache albumCache, cfg config.AlbumsConfig, logger *zap.Logger) *AlbumService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlbumService{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

// CreateAlbum provisions a new album with its share slug and plan limits.
func (s *AlbumService) CreateAlbum(ctx context.Context, userID string, req dto.CreateAlbumRequest) (*models.Album, error) {
	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, errors.Clone(errors.ErrValidation, "eventDate must be formatted as YYYY-MM-DD")
	}

	plan := models.PlanType(req.PlanType)
	if plan != models.PlanFree && plan != models.PlanPaid {
		return nil, errors.Clone(errors.ErrValidation, "unknown plan type")
	}

	slug, err := newSlug()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to generate slug")
	}

	now := time.Now().UTC()
	album := &models.Album{
		UserID:       userID,
		Slug:         slug,
		AlbumName:    req.AlbumName,
		EventDate:    eventDate,
		PlanType:     plan,
		StorageLimit: s.storageLimitFor(plan),
		ExpireAt:     now.Add(s.cfg.AlbumTTL),
		CreatedAt:    now,
	}
	if err := s.repo.Create(ctx, album); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to create album")
	}

	s.logger.Info("album created",
		zap.String("album_id", album.ID),
		zap.String("slug", album.Slug),
		zap.Int("plan", int(plan)))
	return album, nil
}

// GetAlbum returns an owner's album, rejecting other users.
func (s *AlbumService) GetAlbum(ctx context.Context, userID, albumID string) (*models.Album, error) {
	album, err := s.repo.GetByID(ctx, albumID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load album")
	}
	if album.UserID != userID {
		return nil, errors.ErrForbidden
	}
	return album, nil
}

// ListAlbums returns every album the user owns.
func (s *AlbumService) ListAlbums(ctx context.Context, userID string) ([]models.Album, error) {
	albums, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to list albums")
	}
	return albums, nil
}

// GetBySlug resolves a public share slug. Live albums are cached; expired
// ones are rejected before any media is exposed.
func (s *AlbumService) GetBySlug(ctx context.Context, slug string) (*models.Album, error) {
	cacheKey := albumCacheKey(slug)

	var cached models.Album
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		if cached.Expired(time.Now().UTC()) {
			return nil, errors.ErrAlbumExpired
		}
		return &cached, nil
	} else if !stderrors.Is(err, errors.ErrCacheMiss) {
		s.logger.Warn("album cache read failed", zap.String("slug", slug), zap.Error(err))
	}

	album, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to load album")
	}
	if album.Expired(time.Now().UTC()) {
		return nil, errors.ErrAlbumExpired
	}

	if err := s.cache.Set(ctx, cacheKey, album, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("album cache write failed", zap.String("slug", slug), zap.Error(err))
	}
	return album, nil
}

// InvalidateSlug drops the cached share view after album mutations.
func (s *AlbumService) InvalidateSlug(ctx context.Context, slug string) {
	if err := s.cache.Delete(ctx, albumCacheKey(slug)); err != nil {
		s.logger.Warn("album cache invalidation failed", zap.String("slug", slug), zap.Error(err))
	}
}

func (s *AlbumService) storageLimitFor(plan models.PlanType) int64 {
	if plan == models.PlanPaid {
		return s.cfg.PaidStorageLimit
	}
	return s.cfg.FreeStorageLimit
}

func albumCacheKey(slug string) string {
	return fmt.Sprintf("album:slug:%s", slug)
}

// newSlug produces the unguessable public album identifier.
func newSlug() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random slug: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
