package mailer

import (
	"context"
	"fmt"

	"github.com/andreypavlenko/crmcore/internal/config"
	"github.com/resend/resend-go/v2"
)

// Mailer wraps the Resend client behind the narrow surface the notify
// module's NotifyService needs: send one message, get back a provider
// message ID or an error.
type Mailer struct {
	client *resend.Client
	from   string
}

func New(cfg config.MailerConfig) *Mailer {
	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}
	return &Mailer{
		client: resend.NewClient(cfg.APIKey),
		from:   from,
	}
}

// Send submits one email to Resend and returns its provider message ID.
func (m *Mailer) Send(ctx context.Context, to, subject, html, text string) (string, error) {
	req := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
		Text:    text,
	}
	resp, err := m.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}
