// Package mail contiene los adaptadores de ports.Mailer.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ilves-api/internal/application/ports"
)

var _ ports.Mailer = (*ResendMailer)(nil)

// ResendMailer envía correos con la API de Resend.
type ResendMailer struct {
	client *resend.Client
	from   string
	log    zerolog.Logger
}

// NewResendMailer construye el adaptador. apiKey vacío hace fallar cada envío con un error descriptivo.
func NewResendMailer(apiKey, from string, log zerolog.Logger) *ResendMailer {
	var client *resend.Client
	if apiKey != "" {
		client = resend.NewClient(apiKey)
	}
	return &ResendMailer{client: client, from: from, log: log}
}

// Send entrega el mensaje. Un rate limit se devuelve como error sin reintentar.
func (m *ResendMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	if m.client == nil {
		return fmt.Errorf("resend client not initialized (RESEND_API_KEY vacío)")
	}

	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			m.log.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("remaining", rateLimitErr.Remaining).
				Str("reset", rateLimitErr.Reset).
				Msg("límite de envío de Resend alcanzado")
			return fmt.Errorf("límite de correos alcanzado (limit: %s, reinicia en %s s): %w",
				rateLimitErr.Limit, rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	m.log.Info().
		Str("email_id", sent.Id).
		Str("to", msg.To).
		Msg("correo enviado vía Resend")
	return nil
}
