package storage

import "fmt"

// MediaKey builds the object key for an uploaded media file.
func MediaKey(albumID string, mediaID int64, fileName string) string {
	return fmt.Sprintf("media/%s/%d/%s", albumID, mediaID, fileName)
}

// ArchiveKey builds the object key for one archive part of an export
// attempt. The nonce differs per attempt so a retried job never collides
// with leftovers from a previous failed attempt.
func ArchiveKey(albumID string, batchIndex int, nonce string) string {
	return fmt.Sprintf("archives/%s/batch-%d-%s.zip", albumID, batchIndex, nonce)
}
