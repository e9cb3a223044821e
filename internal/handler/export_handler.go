package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gsh519/wedding-snap/internal/dto"
	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/internal/service"
	appErrors "github.com/gsh519/wedding-snap/pkg/errors"
	"github.com/gsh519/wedding-snap/pkg/response"
)

type exportService interface {
	CreateJob(ctx context.Context, userID, albumID string) (*models.DownloadJob, error)
	GetLatestJob(ctx context.Context, userID, albumID string) (*models.DownloadJob, error)
	RetrieveArchive(ctx context.Context, token string, index int) (*service.ArchivePart, error)
}

// ExportHandler exposes bulk download endpoints: owners start and poll
// export jobs, anyone holding the secret token downloads the archives.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Start a bulk download job
// @Tags Exports
// @Produce json
// @Param id path string true "Album ID"
// @Success 201 {object} response.Envelope
// @Router /albums/{id}/export [post]
func (h *ExportHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	job, err := h.exports.CreateJob(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.CreateExportResponse{
		JobID:       job.ID,
		SecretToken: job.SecretToken,
		Status:      job.Status,
	})
}

// Latest godoc
// @Summary Latest export job of an album
// @Tags Exports
// @Produce json
// @Param id path string true "Album ID"
// @Success 200 {object} response.Envelope
// @Router /albums/{id}/export/latest [get]
func (h *ExportHandler) Latest(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	job, err := h.exports.GetLatestJob(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewExportJobResponse(job), nil)
}

// Download godoc
// @Summary Download one archive part
// @Tags Exports
// @Produce application/zip
// @Param token path string true "Secret download token"
// @Param index path integer true "Archive part index"
// @Success 200 {file} binary
// @Router /export/{token}/{index} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, appErrors.ErrBadArchivePart)
		return
	}

	part, err := h.exports.RetrieveArchive(c.Request.Context(), c.Param("token"), index)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", part.FileName))
	c.Data(http.StatusOK, part.ContentType, part.Data)
}
