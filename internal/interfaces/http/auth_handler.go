package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ilves-api/internal/application/auth"
	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/infrastructure/metrics"
	"github.com/jhoicas/ilves-api/pkg/jwt"
)

// AuthHandler maneja login, registro, restablecimiento de contraseña y segundo factor.
type AuthHandler struct {
	uc    *auth.AuthUseCase
	certs CertificateUsers
}

// NewAuthHandler construye el handler de auth. certs puede ser nil si no hay HTTPS.
func NewAuthHandler(uc *auth.AuthUseCase, certs CertificateUsers) *AuthHandler {
	return &AuthHandler{uc: uc, certs: certs}
}

// loginResult etiqueta de métrica para el resultado de un login.
func loginResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrInvalidSecondFactor), errors.Is(err, domain.ErrCertificateUnknown):
		return "invalid"
	case errors.Is(err, domain.ErrLockedOut):
		return "locked"
	case errors.Is(err, domain.ErrSecondFactorRequired):
		return "second_factor"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

// Options godoc
// @Summary      Flujos de login habilitados
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.LoginOptionsResponse
// @Router       /api/auth/options [get]
func (h *AuthHandler) Options(c *fiber.Ctx) error {
	return c.JSON(h.uc.LoginOptions(GetCompany(c)))
}

// Login godoc
// @Summary      Iniciar sesión
// @Description  Acepta JSON o application/x-www-form-urlencoded. Con Google Authenticator se envía también code.
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password, code"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if e := bind(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	out, err := h.uc.Login(c.UserContext(), GetCompany(c), in)
	method := jwt.MethodPassword
	if in.Code != "" {
		method = jwt.MethodTOTP
	}
	metrics.LoginAttempts.WithLabelValues(method, loginResult(err)).Inc()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Certificate godoc
// @Summary      Token para la conexión con certificado de cliente
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.LoginResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/certificate [post]
func (h *AuthHandler) Certificate(c *fiber.Ctx) error {
	cert := PeerCertificate(c)
	if cert == nil || h.certs == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_CERTIFICATE", Message: "la conexión no presentó certificado de cliente"})
	}
	user, err := h.certs.UserByCertificate(c.UserContext(), cert, true)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(jwt.MethodCertificate, "error").Inc()
		return fail(c, err)
	}
	if user != nil && user.CompanyID != GetCompany(c).ID {
		user = nil
	}
	out, err := h.uc.LoginWithCertificate(c.UserContext(), user)
	metrics.LoginAttempts.WithLabelValues(jwt.MethodCertificate, loginResult(err)).Inc()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Register godoc
// @Summary      Autoregistro en la empresa del host
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body  dto.RegisterRequest  true  "Datos del usuario"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterRequest
	if e := bind(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	user, err := h.uc.Register(c.UserContext(), GetCompany(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// PasswordReset godoc
// @Summary      Solicitar restablecimiento de contraseña
// @Description  La respuesta es la misma exista o no el email.
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body  dto.PasswordResetRequest  true  "email"
// @Success      202   {object}  dto.MessageResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/password-reset [post]
func (h *AuthHandler) PasswordReset(c *fiber.Ctx) error {
	var in dto.PasswordResetRequest
	if e := bind(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	if err := h.uc.RequestPasswordReset(c.UserContext(), GetCompany(c), in); err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dto.MessageResponse{Message: "si el email está registrado recibirás un enlace para restablecer la contraseña"})
}

// PasswordResetConfirm godoc
// @Summary      Fijar nueva contraseña con el token recibido
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body  dto.PasswordResetConfirmRequest  true  "token, password"
// @Success      200   {object}  dto.MessageResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/auth/password-reset/confirm [post]
func (h *AuthHandler) PasswordResetConfirm(c *fiber.Ctx) error {
	var in dto.PasswordResetConfirmRequest
	if e := bind(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	if err := h.uc.ResetPassword(c.UserContext(), GetCompany(c), in); err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "contraseña actualizada"})
}

// Me godoc
// @Summary      Usuario autenticado
// @Tags         me
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Router       /api/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Authenticator godoc
// @Summary      Segundo factor del usuario
// @Tags         me
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.AuthenticatorStatus
// @Router       /api/me/authenticator [get]
func (h *AuthHandler) Authenticator(c *fiber.Ctx) error {
	out, err := h.uc.Authenticator(c.UserContext(), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// EnrollAuthenticator godoc
// @Summary      Registrar Google Authenticator
// @Description  Reemplaza el dispositivo anterior. Desde este momento el login pide el código.
// @Tags         me
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  dto.AuthenticatorEnrollment
// @Router       /api/me/authenticator [post]
func (h *AuthHandler) EnrollAuthenticator(c *fiber.Ctx) error {
	out, err := h.uc.EnrollAuthenticator(c.UserContext(), GetCompany(c), GetUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RemoveAuthenticator godoc
// @Summary      Quitar el segundo factor
// @Tags         me
// @Security     BearerAuth
// @Success      204
// @Router       /api/me/authenticator [delete]
func (h *AuthHandler) RemoveAuthenticator(c *fiber.Ctx) error {
	if err := h.uc.RemoveAuthenticator(c.UserContext(), GetUserID(c)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
