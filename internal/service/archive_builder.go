package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/storage"
)

type blobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// ArchiveBuilder packs one media batch into a ZIP blob in object storage.
type ArchiveBuilder struct {
	store  blobStore
	logger *zap.Logger
}

// NewArchiveBuilder constructs the builder.
func NewArchiveBuilder(store blobStore, logger *zap.Logger) *ArchiveBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveBuilder{store: store, logger: logger}
}

// Build fetches every blob of the batch, zips them under their original
// filenames, and uploads the archive under a nonce-scoped key. Individual
// fetch failures are logged and skipped: one missing source file must not
// sink the whole batch. A failed archive upload, by contrast, is a hard
// error and fails the export attempt.
//
// Returns the object-store key and how many entries were written.
func (b *ArchiveBuilder) Build(ctx context.Context, albumID string, batchIndex int, nonce string, items []models.Media) (string, int, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	written := 0
	for _, item := range items {
		data, err := b.store.Get(ctx, item.StorageKey)
		if err != nil {
			b.logger.Warn("skipping unreadable media",
				zap.String("album_id", albumID),
				zap.Int64("media_id", item.ID),
				zap.String("key", item.StorageKey),
				zap.Error(err))
			continue
		}

		entry, err := zw.Create(item.FileName)
		if err != nil {
			_ = zw.Close()
			return "", 0, fmt.Errorf("create zip entry %s: %w", item.FileName, err)
		}
		if _, err := entry.Write(data); err != nil {
			_ = zw.Close()
			return "", 0, fmt.Errorf("write zip entry %s: %w", item.FileName, err)
		}
		written++
	}

	if err := zw.Close(); err != nil {
		return "", 0, fmt.Errorf("finalize archive: %w", err)
	}

	key := storage.ArchiveKey(albumID, batchIndex, nonce)
	if err := b.store.Put(ctx, key, buf.Bytes(), "application/zip"); err != nil {
		return "", 0, fmt.Errorf("upload archive %s: %w", key, err)
	}

	return key, written, nil
}
