package service

import "github.com/gsh519/wedding-snap/internal/models"

// DefaultBatchSize caps how many media files go into one archive part.
const DefaultBatchSize = 500

// SplitBatches divides an ordered media list into contiguous chunks of at
// most size items, preserving input order. The split is deterministic: a
// retried export re-derives batches from a fresh query and must produce
// parts in the same index order as any earlier attempt. Zero items yield
// zero batches; callers treat that as a failure, not an empty success.
func SplitBatches(items []models.Media, size int) [][]models.Media {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if len(items) == 0 {
		return nil
	}

	batches := make([][]models.Media, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
