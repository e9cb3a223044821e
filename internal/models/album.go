package models

import "time"

// PlanType distinguishes free and paid albums.
type PlanType int

const (
	PlanFree PlanType = 0
	PlanPaid PlanType = 1
)

// Album is a couple's private media collection, shared with guests through
// a public slug.
type Album struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Slug          string    `db:"slug" json:"slug"`
	AlbumName     string    `db:"album_name" json:"album_name"`
	EventDate     time.Time `db:"event_date" json:"event_date"`
	PlanType      PlanType  `db:"plan_type" json:"plan_type"`
	StorageUsed   int64     `db:"storage_used" json:"storage_used"`
	StorageLimit  int64     `db:"storage_limit" json:"storage_limit"`
	DownloadCount int       `db:"download_count" json:"download_count"`
	ExpireAt      time.Time `db:"expire_at" json:"expire_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Expired reports whether the album is past its retention window.
func (a *Album) Expired(now time.Time) bool {
	return now.After(a.ExpireAt)
}
