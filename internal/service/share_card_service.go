package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/gsh519/wedding-snap/internal/models"
	"github.com/gsh519/wedding-snap/pkg/errors"
)

// ShareCardService renders the printable table card couples put at the
// venue: album name, event date and a QR code pointing at the guest page.
type ShareCardService struct {
	guestBase string
	logger    *zap.Logger
}

// NewShareCardService constructs the service. guestBase is the public URL
// prefix share slugs are appended to.
func NewShareCardService(guestBase string, logger *zap.Logger) *ShareCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShareCardService{guestBase: guestBase, logger: logger}
}

// GuestURL returns the public share link for an album.
func (s *ShareCardService) GuestURL(album *models.Album) string {
	return fmt.Sprintf("%s/a/%s", s.guestBase, album.Slug)
}

// RenderPDF produces the A5 share card as PDF bytes.
func (s *ShareCardService) RenderPDF(ctx context.Context, album *models.Album) ([]byte, error) {
	guestURL := s.GuestURL(album)
	qrPNG, err := qrcode.Encode(guestURL, qrcode.Medium, 512)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to render QR code")
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(album.AlbumName, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, album.AlbumName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, album.EventDate.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("guest-qr", opts, bytes.NewReader(qrPNG))
	pageW, _ := pdf.GetPageSize()
	const qrSize = 80.0
	pdf.ImageOptions("guest-qr", (pageW-qrSize)/2, pdf.GetY(), qrSize, qrSize, false, opts, 0, "")
	pdf.SetY(pdf.GetY() + qrSize + 8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Scan to share your photos and videos", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, guestURL, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal.Code, errors.ErrInternal.Status, "failed to render share card")
	}

	s.logger.Debug("share card rendered",
		zap.String("album_id", album.ID),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
