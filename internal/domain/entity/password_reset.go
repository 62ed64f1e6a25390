package entity

import "time"

// PasswordResetToken solicitud de restablecimiento de contraseña. Solo se guarda el hash del token.
type PasswordResetToken struct {
	TokenHash string
	UserID    string
	Expires   time.Time
	Created   time.Time
}
