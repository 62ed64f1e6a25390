package dto

// LoginRequest entrada del formulario de login (JSON o x-www-form-urlencoded).
// Code es el código TOTP cuando el usuario tiene Google Authenticator.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
	Code     string `json:"code" form:"code" validate:"omitempty,numeric,len=6"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token      string       `json:"token"`
	AuthMethod string       `json:"auth_method"`
	User       UserResponse `json:"user"`
	// PasswordExpired indica que el cliente debe pedir cambio de contraseña.
	PasswordExpired bool `json:"password_expired"`
}

// LoginOptionsResponse flujos de login habilitados para la empresa del host.
type LoginOptionsResponse struct {
	CompanyID          string `json:"company_id"`
	CompanyName        string `json:"company_name"`
	Password           bool   `json:"password"`
	SelfRegistration   bool   `json:"self_registration"`
	EmailPasswordReset bool   `json:"email_password_reset"`
	OpenIDLogin        bool   `json:"open_id_login"`
	OAuthLogin         bool   `json:"oauth_login"`
	ClientCertificate  bool   `json:"client_certificate"`
}

// PasswordResetRequest solicitud de restablecimiento.
type PasswordResetRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest nueva contraseña con el token recibido por correo.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token" form:"token" validate:"required,min=16"`
	Password string `json:"password" form:"password" validate:"required,min=8"`
}

// AuthenticatorEnrollment secreto y URL otpauth:// para registrar Google Authenticator.
type AuthenticatorEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// AuthenticatorStatus dispositivo de segundo factor del usuario.
type AuthenticatorStatus struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// MessageResponse respuesta simple.
type MessageResponse struct {
	Message string `json:"message"`
}
