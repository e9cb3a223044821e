package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gsh519/wedding-snap/internal/dto"
	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/config"
	apperrors "github.com/gsh519/wedding-snap/pkg/errors"
)

type fullAlbumStoreStub struct {
	albums map[string]*models.Album
}

func newFullAlbumStoreStub(albums ...*models.Album) *fullAlbumStoreStub {
	s := &fullAlbumStoreStub{albums: make(map[string]*models.Album)}
	for _, a := range albums {
		s.albums[a.ID] = a
	}
	return s
}

func (s *fullAlbumStoreStub) Create(ctx context.Context, album *models.Album) error {
	if album.ID == "" {
		album.ID = uuid.NewString()
	}
	copied := *album
	s.albums[album.ID] = &copied
	return nil
}

func (s *fullAlbumStoreStub) GetByID(ctx context.Context, id string) (*models.Album, error) {
	album, ok := s.albums[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *album
	return &copied, nil
}

func (s *fullAlbumStoreStub) GetBySlug(ctx context.Context, slug string) (*models.Album, error) {
	for _, album := range s.albums {
		if album.Slug == slug {
			copied := *album
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *fullAlbumStoreStub) ListByOwner(ctx context.Context, userID string) ([]models.Album, error) {
	var owned []models.Album
	for _, album := range s.albums {
		if album.UserID == userID {
			owned = append(owned, *album)
		}
	}
	return owned, nil
}

func (s *fullAlbumStoreStub) AddStorageUsed(ctx context.Context, id string, delta int64) error {
	album, ok := s.albums[id]
	if !ok {
		return sql.ErrNoRows
	}
	album.StorageUsed += delta
	if album.StorageUsed < 0 {
		album.StorageUsed = 0
	}
	return nil
}

type cacheStub struct {
	entries map[string][]byte
	gets    int
	hits    int
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: make(map[string][]byte)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.gets++
	raw, ok := c.entries[key]
	if !ok {
		return apperrors.ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *cacheStub) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func albumsTestConfig() config.AlbumsConfig {
	return config.AlbumsConfig{
		FreeStorageLimit: 2 << 30,
		PaidStorageLimit: 10 << 30,
		AlbumTTL:         30 * 24 * time.Hour,
		MaxImageSize:     20 << 20,
		MaxVideoSize:     100 << 20,
		CacheTTL:         5 * time.Minute,
	}
}

func TestCreateAlbumAssignsSlugAndLimits(t *testing.T) {
	repo := newFullAlbumStoreStub()
	svc := NewAlbumService(repo, newCacheStub(), albumsTestConfig(), nil)

	album, err := svc.CreateAlbum(context.Background(), "owner-1", dto.CreateAlbumRequest{
		AlbumName: "Our Wedding",
		EventDate: "2026-10-10",
		PlanType:  int(models.PlanFree),
	})
	require.NoError(t, err)
	require.NotEmpty(t, album.ID)
	require.Len(t, album.Slug, 22)
	require.Equal(t, int64(2<<30), album.StorageLimit)
	require.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), album.ExpireAt, time.Minute)

	paid, err := svc.CreateAlbum(context.Background(), "owner-1", dto.CreateAlbumRequest{
		AlbumName: "Paid Wedding",
		EventDate: "2026-10-11",
		PlanType:  int(models.PlanPaid),
	})
	require.NoError(t, err)
	require.Equal(t, int64(10<<30), paid.StorageLimit)
	require.NotEqual(t, album.Slug, paid.Slug)
}

func TestCreateAlbumValidatesInput(t *testing.T) {
	svc := NewAlbumService(newFullAlbumStoreStub(), newCacheStub(), albumsTestConfig(), nil)

	_, err := svc.CreateAlbum(context.Background(), "owner-1", dto.CreateAlbumRequest{AlbumName: "x", EventDate: "10/10/2026"})
	require.Error(t, err)
	require.Equal(t, apperrors.ErrValidation.Code, apperrors.FromError(err).Code)

	_, err = svc.CreateAlbum(context.Background(), "owner-1", dto.CreateAlbumRequest{AlbumName: "x", EventDate: "2026-10-10", PlanType: 9})
	require.Error(t, err)
	require.Equal(t, apperrors.ErrValidation.Code, apperrors.FromError(err).Code)
}

func TestGetAlbumEnforcesOwnership(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	svc := NewAlbumService(newFullAlbumStoreStub(album), newCacheStub(), albumsTestConfig(), nil)

	got, err := svc.GetAlbum(context.Background(), "owner-1", "album-1")
	require.NoError(t, err)
	require.Equal(t, "album-1", got.ID)

	_, err = svc.GetAlbum(context.Background(), "intruder", "album-1")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.GetAlbum(context.Background(), "owner-1", "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetBySlugCachesLiveAlbums(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	cache := newCacheStub()
	svc := NewAlbumService(newFullAlbumStoreStub(album), cache, albumsTestConfig(), nil)

	first, err := svc.GetBySlug(context.Background(), album.Slug)
	require.NoError(t, err)
	require.Equal(t, album.ID, first.ID)
	require.Zero(t, cache.hits)

	second, err := svc.GetBySlug(context.Background(), album.Slug)
	require.NoError(t, err)
	require.Equal(t, album.ID, second.ID)
	require.Equal(t, 1, cache.hits)
}

func TestGetBySlugRejectsExpiredAlbum(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	album.ExpireAt = time.Now().UTC().Add(-time.Hour)
	svc := NewAlbumService(newFullAlbumStoreStub(album), newCacheStub(), albumsTestConfig(), nil)

	_, err := svc.GetBySlug(context.Background(), album.Slug)
	require.ErrorIs(t, err, apperrors.ErrAlbumExpired)

	_, err = svc.GetBySlug(context.Background(), "no-such-slug")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
