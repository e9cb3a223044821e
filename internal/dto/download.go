package dto

import (
	"time"

	"github.com/gsh519/wedding-snap/internal/models"
)

// CreateExportResponse is returned after an export job was accepted.
type CreateExportResponse struct {
	JobID       string           `json:"jobId"`
	SecretToken string           `json:"secretToken"`
	Status      models.JobStatus `json:"status"`
}

// ExportJobResponse exposes export job state for owner polling.
type ExportJobResponse struct {
	ID           string           `json:"id"`
	Status       models.JobStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	TotalFiles   *int             `json:"totalFiles,omitempty"`
	ArchiveCount *int             `json:"archiveCount,omitempty"`
}

// NewExportJobResponse maps a job model to its API view. Retry counts stay
// internal; owners only see the coarse lifecycle states.
func NewExportJobResponse(job *models.DownloadJob) ExportJobResponse {
	return ExportJobResponse{
		ID:           job.ID,
		Status:       job.Status,
		CreatedAt:    job.CreatedAt,
		CompletedAt:  job.CompletedAt,
		TotalFiles:   job.TotalFiles,
		ArchiveCount: job.ArchiveCount,
	}
}
