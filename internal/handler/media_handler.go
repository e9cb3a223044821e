package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gsh519/wedding-snap/internal/dto"
	"github.com/gsh519/wedding-snap/internal/service"
	appErrors "github.com/gsh519/wedding-snap/pkg/errors"
	"github.com/gsh519/wedding-snap/pkg/response"
)

// MediaHandler exposes guest upload and owner media management endpoints.
type MediaHandler struct {
	media *service.MediaService
}

// NewMediaHandler constructs handler.
func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Register godoc
// @Summary Register a guest upload
// @Tags Guest
// @Accept json
// @Produce json
// @Param slug path string true "Album slug"
// @Param payload body dto.RegisterMediaRequest true "Upload metadata"
// @Success 201 {object} response.Envelope
// @Router /public/albums/{slug}/media [post]
func (h *MediaHandler) Register(c *gin.Context) {
	var req dto.RegisterMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload payload"))
		return
	}

	resp, err := h.media.RegisterUpload(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resp)
}

// Delete godoc
// @Summary Delete one media item
// @Tags Media
// @Param id path string true "Album ID"
// @Param mediaId path integer true "Media ID"
// @Success 204
// @Router /albums/{id}/media/{mediaId} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	mediaID, err := strconv.ParseInt(c.Param("mediaId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid media id"))
		return
	}

	if err := h.media.Delete(c.Request.Context(), claims.UserID, mediaID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
