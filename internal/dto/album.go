package dto

import (
	"time"

	"github.com/gsh519/wedding-snap/internal/models"
)

// CreateAlbumRequest captures POST /albums payload.
type CreateAlbumRequest struct {
	AlbumName string `json:"albumName" binding:"required"`
	EventDate string `json:"eventDate" binding:"required"`
	PlanType  int    `json:"planType"`
}

// AlbumResponse is the owner-facing album view.
type AlbumResponse struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	AlbumName     string    `json:"albumName"`
	EventDate     time.Time `json:"eventDate"`
	PlanType      int       `json:"planType"`
	StorageUsed   int64     `json:"storageUsed"`
	StorageLimit  int64     `json:"storageLimit"`
	DownloadCount int       `json:"downloadCount"`
	ExpireAt      time.Time `json:"expireAt"`
	GuestURL      string    `json:"guestUrl"`
}

// PublicAlbumResponse is what guests see when opening a share link.
type PublicAlbumResponse struct {
	Slug      string    `json:"slug"`
	AlbumName string    `json:"albumName"`
	EventDate time.Time `json:"eventDate"`
	Media     []MediaView `json:"media"`
}

// NewAlbumResponse maps a model to the owner view.
func NewAlbumResponse(album *models.Album, guestURL string) AlbumResponse {
	return AlbumResponse{
		ID:            album.ID,
		Slug:          album.Slug,
		AlbumName:     album.AlbumName,
		EventDate:     album.EventDate,
		PlanType:      int(album.PlanType),
		StorageUsed:   album.StorageUsed,
		StorageLimit:  album.StorageLimit,
		DownloadCount: album.DownloadCount,
		ExpireAt:      album.ExpireAt,
		GuestURL:      guestURL,
	}
}
