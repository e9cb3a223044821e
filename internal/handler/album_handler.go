package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gsh519/wedding-snap/internal/dto"
	"github.com/gsh519/wedding-snap/internal/service"
	appErrors "github.com/gsh519/wedding-snap/pkg/errors"
	"github.com/gsh519/wedding-snap/pkg/response"
)

// AlbumHandler exposes owner album endpoints and the guest share page.
type AlbumHandler struct {
	albums    *service.AlbumService
	media     *service.MediaService
	shareCard *service.ShareCardService
}

// NewAlbumHandler constructs handler.
func NewAlbumHandler(albums *service.AlbumService, media *service.MediaService, shareCard *service.ShareCardService) *AlbumHandler {
	return &AlbumHandler{albums: albums, media: media, shareCard: shareCard}
}

// Create godoc
// @Summary Create album
// @Tags Albums
// @Accept json
// @Produce json
// @Param payload body dto.CreateAlbumRequest true "Album payload"
// @Success 201 {object} response.Envelope
// @Router /albums [post]
func (h *AlbumHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateAlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid album payload"))
		return
	}

	album, err := h.albums.CreateAlbum(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewAlbumResponse(album, h.shareCard.GuestURL(album)))
}

// List godoc
// @Summary List owned albums
// @Tags Albums
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /albums [get]
func (h *AlbumHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	albums, err := h.albums.ListAlbums(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	views := make([]dto.AlbumResponse, 0, len(albums))
	for i := range albums {
		views = append(views, dto.NewAlbumResponse(&albums[i], h.shareCard.GuestURL(&albums[i])))
	}
	response.JSON(c, http.StatusOK, views, nil)
}

// Get godoc
// @Summary Get one owned album
// @Tags Albums
// @Produce json
// @Param id path string true "Album ID"
// @Success 200 {object} response.Envelope
// @Router /albums/{id} [get]
func (h *AlbumHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	album, err := h.albums.GetAlbum(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAlbumResponse(album, h.shareCard.GuestURL(album)), nil)
}

// Media godoc
// @Summary List media in one owned album
// @Tags Albums
// @Produce json
// @Param id path string true "Album ID"
// @Success 200 {object} response.Envelope
// @Router /albums/{id}/media [get]
func (h *AlbumHandler) Media(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	album, err := h.albums.GetAlbum(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	media, err := h.media.ListByAlbum(c.Request.Context(), album.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, media, nil)
}

// ShareCard godoc
// @Summary Printable QR share card
// @Tags Albums
// @Produce application/pdf
// @Param id path string true "Album ID"
// @Success 200 {file} binary
// @Router /albums/{id}/share-card [get]
func (h *AlbumHandler) ShareCard(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	album, err := h.albums.GetAlbum(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.shareCard.RenderPDF(c.Request.Context(), album)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "share-card-"+album.Slug+".pdf"))
	c.Data(http.StatusOK, "application/pdf", data)
}

// PublicAlbum godoc
// @Summary Guest share page payload
// @Tags Guest
// @Produce json
// @Param slug path string true "Album slug"
// @Success 200 {object} response.Envelope
// @Router /public/albums/{slug} [get]
func (h *AlbumHandler) PublicAlbum(c *gin.Context) {
	album, err := h.albums.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}

	media, err := h.media.ListByAlbum(c.Request.Context(), album.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.PublicAlbumResponse{
		Slug:      album.Slug,
		AlbumName: album.AlbumName,
		EventDate: album.EventDate,
		Media:     media,
	}, nil)
}
