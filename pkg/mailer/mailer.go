package mailer

import (
	"context"
	"fmt"
	"strings"

	mail "github.com/wneessen/go-mail"

	"github.com/gsh519/wedding-snap/pkg/config"
)

// JobReadyNotification carries everything the completion email needs.
type JobReadyNotification struct {
	JobID        string
	Recipient    string
	AlbumName    string
	SecretToken  string
	ArchiveCount int
	TotalFiles   int
	DownloadBase string
}

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	client *mail.Client
	from   string
}

// New builds an SMTP-backed mailer.
func New(cfg config.SMTPConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Mailer{client: client, from: cfg.From}, nil
}

// NotifyJobReady emails the couple their archive download links. Callers
// treat failures as best-effort; the export stays completed either way.
func (m *Mailer) NotifyJobReady(ctx context.Context, n JobReadyNotification) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(n.Recipient); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("Your album \"%s\" is ready to download", n.AlbumName))
	msg.SetBodyString(mail.TypeTextPlain, buildJobReadyBody(n))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send job ready mail: %w", err)
	}
	return nil
}

func buildJobReadyBody(n JobReadyNotification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Your export of \"%s\" finished: %d files packed into %d archive(s).\n\n", n.AlbumName, n.TotalFiles, n.ArchiveCount)
	for i := 0; i < n.ArchiveCount; i++ {
		fmt.Fprintf(&b, "Part %d: %s/export/%s/%d\n", i+1, strings.TrimRight(n.DownloadBase, "/"), n.SecretToken, i)
	}
	b.WriteString("\nLinks stay valid for 7 days.\n")
	return b.String()
}
