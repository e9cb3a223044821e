package dto

import "time"

// RegisterMediaRequest announces a guest upload before the blob exists.
type RegisterMediaRequest struct {
	FileName       string `json:"fileName" binding:"required"`
	MimeType       string `json:"mimeType" binding:"required"`
	FileSize       int64  `json:"fileSize" binding:"required,gt=0"`
	UploadUserName string `json:"uploadUserName"`
}

// RegisterMediaResponse hands the guest a presigned upload URL.
type RegisterMediaResponse struct {
	MediaID   int64  `json:"mediaId"`
	UploadURL string `json:"uploadUrl"`
}

// MediaView is a single media entry with a short-lived view URL.
type MediaView struct {
	ID             int64     `json:"id"`
	FileName       string    `json:"fileName"`
	MimeType       string    `json:"mimeType"`
	FileSize       int64     `json:"fileSize"`
	UploadUserName string    `json:"uploadUserName,omitempty"`
	ViewURL        string    `json:"viewUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
