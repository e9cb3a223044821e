package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gsh519/wedding-snap/internal/models"
)

type reaperJobStoreStub struct {
	expired   []models.DownloadJob
	deleted   []string
	deleteErr map[string]error
}

func (s *reaperJobStoreStub) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.DownloadJob, error) {
	return s.expired, nil
}

func (s *reaperJobStoreStub) Delete(ctx context.Context, id string) error {
	if err, ok := s.deleteErr[id]; ok {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type reaperAlbumStoreStub struct {
	expired []models.Album
	usage   map[string]int64
}

func (s *reaperAlbumStoreStub) ListExpiredBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Album, error) {
	return s.expired, nil
}

func (s *reaperAlbumStoreStub) AddStorageUsed(ctx context.Context, id string, delta int64) error {
	if s.usage == nil {
		s.usage = make(map[string]int64)
	}
	s.usage[id] += delta
	return nil
}

type mediaRepoStub struct {
	items       []models.Media
	softDeleted []int64
}

func (s *mediaRepoStub) Create(ctx context.Context, media *models.Media) error { return nil }

func (s *mediaRepoStub) GetByID(ctx context.Context, id int64) (*models.Media, error) {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, fmt.Errorf("media %d not found", id)
}

func (s *mediaRepoStub) UpdateStorageKey(ctx context.Context, id int64, key string) error {
	return nil
}

func (s *mediaRepoStub) ListActiveByAlbum(ctx context.Context, albumID string) ([]models.Media, error) {
	var active []models.Media
	for _, item := range s.items {
		if item.AlbumID == albumID && item.DeletedAt == nil {
			active = append(active, item)
		}
	}
	return active, nil
}

func (s *mediaRepoStub) SoftDelete(ctx context.Context, id int64, deletedAt time.Time) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].DeletedAt = &deletedAt
			s.softDeleted = append(s.softDeleted, id)
			return nil
		}
	}
	return fmt.Errorf("media %d not found", id)
}

type deleteLogStub struct {
	entries []models.MediaDeleteLog
}

func (s *deleteLogStub) Create(ctx context.Context, log *models.MediaDeleteLog) error {
	s.entries = append(s.entries, *log)
	return nil
}

func TestReaperDeletesExpiredExports(t *testing.T) {
	completedAt := time.Now().UTC().Add(-8 * 24 * time.Hour)
	jobStore := &reaperJobStoreStub{expired: []models.DownloadJob{
		{ID: "job-1", AlbumID: "album-1", Status: models.JobStatusCompleted, CompletedAt: &completedAt,
			ArchiveKeys: models.ArchiveKeys{"archives/album-1/batch-0-aa.zip", "archives/album-1/batch-1-aa.zip"}},
	}}
	store := newBlobStoreStub()
	store.objects["archives/album-1/batch-0-aa.zip"] = []byte("a")
	store.objects["archives/album-1/batch-1-aa.zip"] = []byte("b")

	reaper := NewReaper(jobStore, &reaperAlbumStoreStub{}, &mediaRepoStub{}, &deleteLogStub{}, store, ReaperConfig{}, nil, nil)
	reaper.RunOnce(context.Background())

	require.Equal(t, []string{"job-1"}, jobStore.deleted)
	require.ElementsMatch(t, []string{"archives/album-1/batch-0-aa.zip", "archives/album-1/batch-1-aa.zip"}, store.deleted)
}

func TestReaperKeepsJobWhenArchiveDeleteFails(t *testing.T) {
	completedAt := time.Now().UTC().Add(-8 * 24 * time.Hour)
	jobStore := &reaperJobStoreStub{expired: []models.DownloadJob{
		{ID: "job-1", AlbumID: "album-1", Status: models.JobStatusCompleted, CompletedAt: &completedAt,
			ArchiveKeys: models.ArchiveKeys{"archives/album-1/batch-0-aa.zip"}},
	}}
	store := newBlobStoreStub()
	store.objects["archives/album-1/batch-0-aa.zip"] = []byte("a")
	store.deleteErr["archives/album-1/batch-0-aa.zip"] = fmt.Errorf("bucket unavailable")

	reaper := NewReaper(jobStore, &reaperAlbumStoreStub{}, &mediaRepoStub{}, &deleteLogStub{}, store, ReaperConfig{}, nil, nil)
	reaper.RunOnce(context.Background())

	require.Empty(t, jobStore.deleted)
}

func TestReaperToleratesMissingArchiveBlob(t *testing.T) {
	completedAt := time.Now().UTC().Add(-8 * 24 * time.Hour)
	jobStore := &reaperJobStoreStub{expired: []models.DownloadJob{
		{ID: "job-1", AlbumID: "album-1", Status: models.JobStatusCompleted, CompletedAt: &completedAt,
			ArchiveKeys: models.ArchiveKeys{"archives/album-1/batch-0-gone.zip"}},
	}}

	reaper := NewReaper(jobStore, &reaperAlbumStoreStub{}, &mediaRepoStub{}, &deleteLogStub{}, newBlobStoreStub(), ReaperConfig{}, nil, nil)
	reaper.RunOnce(context.Background())

	require.Equal(t, []string{"job-1"}, jobStore.deleted)
}

func TestReaperPurgesExpiredAlbumMedia(t *testing.T) {
	album := models.Album{ID: "album-1", UserID: "owner-1", ExpireAt: time.Now().UTC().Add(-40 * 24 * time.Hour)}
	media := &mediaRepoStub{items: []models.Media{
		{ID: 1, AlbumID: "album-1", StorageKey: "media/album-1/1/a.jpg", FileName: "a.jpg", FileSize: 100},
		{ID: 2, AlbumID: "album-1", StorageKey: "media/album-1/2/b.jpg", FileName: "b.jpg", FileSize: 200},
	}}
	store := newBlobStoreStub()
	store.objects["media/album-1/1/a.jpg"] = []byte("a")
	store.objects["media/album-1/2/b.jpg"] = []byte("b")
	albums := &reaperAlbumStoreStub{expired: []models.Album{album}}
	logs := &deleteLogStub{}

	reaper := NewReaper(&reaperJobStoreStub{}, albums, media, logs, store, ReaperConfig{}, nil, nil)
	reaper.RunOnce(context.Background())

	require.ElementsMatch(t, []int64{1, 2}, media.softDeleted)
	require.Len(t, logs.entries, 2)
	for _, entry := range logs.entries {
		require.Equal(t, models.DeleteReasonExpired, entry.DeleteReason)
		require.Equal(t, "album-1", entry.AlbumID)
	}
	require.Equal(t, int64(-300), albums.usage["album-1"])
}
