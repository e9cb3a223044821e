package models

import "time"

// Media is one guest-uploaded photo or video.
type Media struct {
	ID             int64      `db:"id" json:"id"`
	AlbumID        string     `db:"album_id" json:"album_id"`
	UploadUserName *string    `db:"upload_user_name" json:"upload_user_name,omitempty"`
	StorageKey     string     `db:"storage_key" json:"-"`
	FileName       string     `db:"file_name" json:"file_name"`
	MimeType       string     `db:"mime_type" json:"mime_type"`
	FileSize       int64      `db:"file_size" json:"file_size"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	DeletedAt      *time.Time `db:"deleted_at" json:"-"`
}

// MediaDeleteReason explains why a media row was removed.
type MediaDeleteReason int

const (
	DeleteReasonExpired MediaDeleteReason = 1
	DeleteReasonGrace   MediaDeleteReason = 2
	DeleteReasonManual  MediaDeleteReason = 3
)

// MediaDeleteLog records a physical media deletion for auditability.
type MediaDeleteLog struct {
	ID           int64             `db:"id" json:"id"`
	MediaID      int64             `db:"media_id" json:"media_id"`
	AlbumID      string            `db:"album_id" json:"album_id"`
	StorageKey   string            `db:"storage_key" json:"storage_key"`
	DeleteReason MediaDeleteReason `db:"delete_reason" json:"delete_reason"`
	Info         *string           `db:"info" json:"info,omitempty"`
	DeletedAt    time.Time         `db:"deleted_at" json:"deleted_at"`
}
