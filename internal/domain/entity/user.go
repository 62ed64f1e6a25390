package entity

import "time"

// Roles válidos para User.
const (
	RoleAdministrator = "administrator"
	RoleUser          = "user"
)

// Estados de usuario.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa un usuario del sistema (pertenece a una Company).
type User struct {
	ID                     string
	CompanyID              string
	FirstName              string
	LastName               string
	EmailAddress           string
	PhoneNumber            string
	PasswordHash           string // bcrypt hash, nunca plano en dominio después de persistir
	Role                   string // administrator, user
	Status                 string // active, inactive
	LockedOut              bool
	FailedLoginCount       int
	PasswordExpirationDate *time.Time
	Created                time.Time
	Modified               time.Time
}

// CanAuthenticate indica si el usuario puede iniciar sesión (activo y no bloqueado).
func (u *User) CanAuthenticate() bool {
	return u != nil && u.Status == UserStatusActive && !u.LockedOut
}

// PasswordExpired indica si la contraseña venció respecto a now.
func (u *User) PasswordExpired(now time.Time) bool {
	return u.PasswordExpirationDate != nil && now.After(*u.PasswordExpirationDate)
}
