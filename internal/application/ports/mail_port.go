package ports

import "context"

// MailMessage correo transaccional (texto + HTML).
type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Mailer define el puerto de salida para envío de correos (restablecimiento de contraseña).
// Adaptadores: Resend en producción, log en desarrollo.
type Mailer interface {
	// Send entrega el mensaje. El contexto debe llevar un timeout para no bloquear la petición.
	Send(ctx context.Context, msg MailMessage) error
}
