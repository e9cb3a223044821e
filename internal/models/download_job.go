package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus captures the export job lifecycle.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// ArchiveKeys is the ordered list of object-store keys, one per archive
// part, persisted as JSON. Index order matters: the download URL addresses
// parts positionally.
type ArchiveKeys []string

// Value marshals the keys to JSON for persistence.
func (k ArchiveKeys) Value() (driver.Value, error) {
	if k == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(k))
	if err != nil {
		return nil, fmt.Errorf("marshal archive keys: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the key list.
func (k *ArchiveKeys) Scan(value interface{}) error {
	if value == nil {
		*k = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ArchiveKeys", value)
	}
	if len(data) == 0 {
		*k = nil
		return nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return fmt.Errorf("unmarshal archive keys: %w", err)
	}
	*k = keys
	return nil
}

// DownloadJob is one bulk export request for an album.
type DownloadJob struct {
	ID           string      `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"user_id"`
	AlbumID      string      `db:"album_id" json:"album_id"`
	SecretToken  string      `db:"secret_token" json:"-"`
	Status       JobStatus   `db:"status" json:"status"`
	RetryCount   int         `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	CompletedAt  *time.Time  `db:"completed_at" json:"completed_at,omitempty"`
	DownloadedAt *time.Time  `db:"downloaded_at" json:"downloaded_at,omitempty"`
	TotalFiles   *int        `db:"total_files" json:"total_files,omitempty"`
	ArchiveCount *int        `db:"archive_count" json:"archive_count,omitempty"`
	ArchiveKeys  ArchiveKeys `db:"archive_keys" json:"-"`
}
