package mail_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/internal/application/ports"
	"github.com/jhoicas/ilves-api/internal/infrastructure/mail"
	"github.com/jhoicas/ilves-api/pkg/config"
)

func TestNew_EligeAdaptador(t *testing.T) {
	_, isLog := mail.New(config.MailConfig{Provider: "log"}, zerolog.Nop()).(*mail.LogMailer)
	assert.True(t, isLog)

	_, isResend := mail.New(config.MailConfig{Provider: "resend", ResendAPIKey: "re_test"}, zerolog.Nop()).(*mail.ResendMailer)
	assert.True(t, isResend)
}

func TestLogMailer_RegistraMensajes(t *testing.T) {
	m := mail.NewLogMailer(zerolog.Nop())
	require.NoError(t, m.Send(context.Background(), ports.MailMessage{To: "a@example.com", Subject: "hola"}))

	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)
}

func TestResendMailer_SinAPIKey(t *testing.T) {
	m := mail.NewResendMailer("", "no-reply@example.com", zerolog.Nop())
	err := m.Send(context.Background(), ports.MailMessage{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESEND_API_KEY")
}
