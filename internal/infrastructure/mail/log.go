package mail

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ilves-api/internal/application/ports"
	"github.com/jhoicas/ilves-api/pkg/config"
)

var _ ports.Mailer = (*LogMailer)(nil)

// LogMailer escribe los correos en el log en lugar de enviarlos (desarrollo y tests).
type LogMailer struct {
	log zerolog.Logger

	mu   sync.Mutex
	sent []ports.MailMessage
}

// NewLogMailer construye el adaptador.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send registra el mensaje.
func (m *LogMailer) Send(_ context.Context, msg ports.MailMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("correo (no enviado)")
	return nil
}

// Sent mensajes registrados hasta ahora.
func (m *LogMailer) Sent() []ports.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.MailMessage(nil), m.sent...)
}

// New elige el adaptador según MAIL_PROVIDER ("resend" o "log").
func New(cfg config.MailConfig, log zerolog.Logger) ports.Mailer {
	if cfg.Provider == "resend" {
		return NewResendMailer(cfg.ResendAPIKey, cfg.From, log)
	}
	return NewLogMailer(log)
}
