package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShareCardGuestURL(t *testing.T) {
	svc := NewShareCardService("https://wedding-snap.example", nil)
	album := testAlbum("album-1", "owner-1")
	album.Slug = "AbCdEf123"

	require.Equal(t, "https://wedding-snap.example/a/AbCdEf123", svc.GuestURL(album))
}

func TestShareCardRendersPDF(t *testing.T) {
	svc := NewShareCardService("https://wedding-snap.example", nil)
	album := testAlbum("album-1", "owner-1")
	album.AlbumName = "Hana & Kenji"
	album.EventDate = time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)

	data, err := svc.RenderPDF(context.Background(), album)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	require.Greater(t, len(data), 1000)
}
