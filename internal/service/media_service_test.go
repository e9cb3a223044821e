package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gsh519/wedding-snap/internal/dto"
	"github.com/gsh519/wedding-snap/internal/models"
	apperrors "github.com/gsh519/wedding-snap/pkg/errors"
)

type presignStub struct {
	deleted   []string
	deleteErr error
}

func (s *presignStub) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	return "https://s3.test/put/" + key, nil
}

func (s *presignStub) PresignGet(ctx context.Context, key string) (string, error) {
	return "https://s3.test/get/" + key, nil
}

func (s *presignStub) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, key)
	return nil
}

type mediaUploadRepoStub struct {
	mediaRepoStub
	nextID int64
	keys   map[int64]string
}

func (s *mediaUploadRepoStub) Create(ctx context.Context, media *models.Media) error {
	s.nextID++
	media.ID = s.nextID
	media.CreatedAt = time.Now().UTC()
	s.items = append(s.items, *media)
	return nil
}

func (s *mediaUploadRepoStub) UpdateStorageKey(ctx context.Context, id int64, key string) error {
	if s.keys == nil {
		s.keys = make(map[int64]string)
	}
	s.keys[id] = key
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].StorageKey = key
		}
	}
	return nil
}

func TestRegisterUploadPresignsValidFile(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	albums := newFullAlbumStoreStub(album)
	repo := &mediaUploadRepoStub{}
	svc := NewMediaService(repo, albums, &deleteLogStub{}, &presignStub{}, albumsTestConfig(), nil)

	resp, err := svc.RegisterUpload(context.Background(), album.Slug, dto.RegisterMediaRequest{
		FileName:       "ceremony.jpg",
		MimeType:       "image/jpeg",
		FileSize:       5 << 20,
		UploadUserName: "Aunt May",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.MediaID)
	require.Equal(t, "https://s3.test/put/media/album-1/1/ceremony.jpg", resp.UploadURL)
	require.Equal(t, "media/album-1/1/ceremony.jpg", repo.keys[1])

	stored, err := albums.GetByID(context.Background(), "album-1")
	require.NoError(t, err)
	require.Equal(t, int64(5<<20), stored.StorageUsed)
}

func TestRegisterUploadValidation(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	album.StorageUsed = album.StorageLimit - (1 << 20)
	expired := testAlbum("album-2", "owner-1")
	expired.ExpireAt = time.Now().UTC().Add(-time.Hour)
	albums := newFullAlbumStoreStub(album, expired)
	svc := NewMediaService(&mediaUploadRepoStub{}, albums, &deleteLogStub{}, &presignStub{}, albumsTestConfig(), nil)

	tests := []struct {
		name string
		slug string
		req  dto.RegisterMediaRequest
		want *apperrors.Error
	}{
		{name: "unknown slug", slug: "ghost", req: dto.RegisterMediaRequest{FileName: "a.jpg", MimeType: "image/jpeg", FileSize: 100}, want: apperrors.ErrNotFound},
		{name: "expired album", slug: expired.Slug, req: dto.RegisterMediaRequest{FileName: "a.jpg", MimeType: "image/jpeg", FileSize: 100}, want: apperrors.ErrAlbumExpired},
		{name: "unsupported type", slug: album.Slug, req: dto.RegisterMediaRequest{FileName: "a.gif", MimeType: "image/gif", FileSize: 100}, want: apperrors.ErrValidation},
		{name: "image too large", slug: album.Slug, req: dto.RegisterMediaRequest{FileName: "a.jpg", MimeType: "image/jpeg", FileSize: 21 << 20}, want: apperrors.ErrValidation},
		{name: "video too large", slug: album.Slug, req: dto.RegisterMediaRequest{FileName: "a.mp4", MimeType: "video/mp4", FileSize: 101 << 20}, want: apperrors.ErrValidation},
		{name: "storage limit", slug: album.Slug, req: dto.RegisterMediaRequest{FileName: "a.jpg", MimeType: "image/jpeg", FileSize: 2 << 20}, want: apperrors.ErrStorageLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RegisterUpload(context.Background(), tt.slug, tt.req)
			require.Error(t, err)
			require.Equal(t, tt.want.Code, apperrors.FromError(err).Code)
		})
	}
}

func TestRegisterUploadVideoWithinLimit(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	svc := NewMediaService(&mediaUploadRepoStub{}, newFullAlbumStoreStub(album), &deleteLogStub{}, &presignStub{}, albumsTestConfig(), nil)

	_, err := svc.RegisterUpload(context.Background(), album.Slug, dto.RegisterMediaRequest{
		FileName: "first-dance.mp4",
		MimeType: "video/mp4",
		FileSize: 80 << 20,
	})
	require.NoError(t, err)
}

func TestListByAlbumReturnsViewURLs(t *testing.T) {
	user := "Aunt May"
	repo := &mediaUploadRepoStub{}
	repo.items = []models.Media{
		{ID: 1, AlbumID: "album-1", StorageKey: "media/album-1/1/a.jpg", FileName: "a.jpg", MimeType: "image/jpeg", FileSize: 100, UploadUserName: &user},
		{ID: 2, AlbumID: "album-1", FileName: "pending.jpg", MimeType: "image/jpeg", FileSize: 100},
	}
	svc := NewMediaService(repo, newFullAlbumStoreStub(), &deleteLogStub{}, &presignStub{}, albumsTestConfig(), nil)

	views, err := svc.ListByAlbum(context.Background(), "album-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "https://s3.test/get/media/album-1/1/a.jpg", views[0].ViewURL)
	require.Equal(t, "Aunt May", views[0].UploadUserName)
	require.Empty(t, views[1].ViewURL)
}

func TestDeleteMediaRemovesBlobAndLogs(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	album.StorageUsed = 1000
	albums := newFullAlbumStoreStub(album)
	repo := &mediaUploadRepoStub{}
	repo.items = []models.Media{
		{ID: 7, AlbumID: "album-1", StorageKey: "media/album-1/7/a.jpg", FileName: "a.jpg", FileSize: 400},
	}
	store := &presignStub{}
	logs := &deleteLogStub{}
	svc := NewMediaService(repo, albums, logs, store, albumsTestConfig(), nil)

	require.NoError(t, svc.Delete(context.Background(), "owner-1", 7))
	require.Equal(t, []string{"media/album-1/7/a.jpg"}, store.deleted)
	require.Equal(t, []int64{7}, repo.softDeleted)
	require.Len(t, logs.entries, 1)
	require.Equal(t, models.DeleteReasonManual, logs.entries[0].DeleteReason)

	stored, err := albums.GetByID(context.Background(), "album-1")
	require.NoError(t, err)
	require.Equal(t, int64(600), stored.StorageUsed)
}

func TestDeleteMediaRejectsNonOwner(t *testing.T) {
	album := testAlbum("album-1", "owner-1")
	repo := &mediaUploadRepoStub{}
	repo.items = []models.Media{{ID: 7, AlbumID: "album-1", StorageKey: "media/album-1/7/a.jpg", FileSize: 400}}
	svc := NewMediaService(repo, newFullAlbumStoreStub(album), &deleteLogStub{}, &presignStub{}, albumsTestConfig(), nil)

	err := svc.Delete(context.Background(), "intruder", 7)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}
