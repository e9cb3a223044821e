package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gsh519/wedding-snap/internal/middleware"
	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/internal/service"
	appErrors "github.com/gsh519/wedding-snap/pkg/errors"
	"github.com/gsh519/wedding-snap/pkg/response"
)

type exportServiceMock struct {
	createResp  *models.DownloadJob
	createErr   error
	latestResp  *models.DownloadJob
	latestErr   error
	part        *service.ArchivePart
	retrieveErr error
}

func (m *exportServiceMock) CreateJob(ctx context.Context, userID, albumID string) (*models.DownloadJob, error) {
	return m.createResp, m.createErr
}

func (m *exportServiceMock) GetLatestJob(ctx context.Context, userID, albumID string) (*models.DownloadJob, error) {
	return m.latestResp, m.latestErr
}

func (m *exportServiceMock) RetrieveArchive(ctx context.Context, token string, index int) (*service.ArchivePart, error) {
	return m.part, m.retrieveErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestExportHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportServiceMock{
		createResp: &models.DownloadJob{ID: "job-1", SecretToken: "tok-1", Status: models.JobStatusPending},
	}
	handler := NewExportHandler(mockSvc)

	c, w := newGinContext(http.MethodPost, "/albums/album-1/exports", nil)
	c.Params = gin.Params{{Key: "id", Value: "album-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1"})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	payload := envelope.Data.(map[string]interface{})
	require.Equal(t, "job-1", payload["jobId"])
	require.Equal(t, "tok-1", payload["secretToken"])
	require.Equal(t, string(models.JobStatusPending), payload["status"])
}

func TestExportHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportServiceMock{})

	c, w := newGinContext(http.MethodPost, "/albums/album-1/exports", nil)
	handler.Create(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportHandlerLatest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now().UTC()
	total := 1200
	count := 3
	mockSvc := &exportServiceMock{
		latestResp: &models.DownloadJob{ID: "job-1", Status: models.JobStatusCompleted, CreatedAt: now, CompletedAt: &now, TotalFiles: &total, ArchiveCount: &count},
	}
	handler := NewExportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/albums/album-1/exports/latest", nil)
	c.Params = gin.Params{{Key: "id", Value: "album-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "owner-1"})

	handler.Latest(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	payload := envelope.Data.(map[string]interface{})
	require.Equal(t, string(models.JobStatusCompleted), payload["status"])
	require.EqualValues(t, 3, payload["archiveCount"])
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &exportServiceMock{
		part: &service.ArchivePart{FileName: "album-a-part-1.zip", ContentType: "application/zip", Data: []byte("zip-bytes")},
	}
	handler := NewExportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/export/tok-1/0", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok-1"}, {Key: "index", Value: "0"}}

	handler.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "album-a-part-1.zip")
	require.Equal(t, "zip-bytes", w.Body.String())
}

func TestExportHandlerDownloadErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		index  string
		err    error
		status int
	}{
		{name: "non-numeric index", index: "x", err: nil, status: http.StatusBadRequest},
		{name: "unknown token", index: "0", err: appErrors.ErrNotFound, status: http.StatusNotFound},
		{name: "not ready", index: "0", err: appErrors.ErrExportNotReady, status: http.StatusConflict},
		{name: "expired", index: "0", err: appErrors.ErrExportExpired, status: http.StatusGone},
		{name: "bad part", index: "9", err: appErrors.ErrBadArchivePart, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewExportHandler(&exportServiceMock{retrieveErr: tt.err})
			c, w := newGinContext(http.MethodGet, "/export/tok/"+tt.index, nil)
			c.Params = gin.Params{{Key: "token", Value: "tok"}, {Key: "index", Value: tt.index}}

			handler.Download(c)
			require.Equal(t, tt.status, w.Code)
		})
	}
}
