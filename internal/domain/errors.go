package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrUserNotFound         = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists   = errors.New("el email ya está registrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrLockedOut            = errors.New("cuenta bloqueada por intentos fallidos")
	ErrSecondFactorRequired = errors.New("se requiere segundo factor")
	ErrInvalidSecondFactor  = errors.New("código de segundo factor inválido")
	ErrFeatureDisabled      = errors.New("función deshabilitada para la empresa")
	ErrCertificateUnknown   = errors.New("certificado desconocido")
	ErrTokenExpired         = errors.New("token expirado o ya utilizado")
)
