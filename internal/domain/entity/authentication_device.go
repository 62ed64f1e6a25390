package entity

import "time"

// Tipos de dispositivo de autenticación (segundo factor).
const (
	DeviceTypeNone                = "NONE"
	DeviceTypeGoogleAuthenticator = "GOOGLE_AUTHENTICATOR"
)

// AuthenticationDevice segundo factor registrado por un usuario.
type AuthenticationDevice struct {
	ID      string
	UserID  string
	Type    string
	Name    string
	Secret  string // secreto TOTP en base32
	// LastCounter último paso de tiempo TOTP aceptado; un código no se acepta dos veces.
	LastCounter int64
	Created     time.Time
}
