package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/pkg/validate"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// Orden: del más específico al más general.
var errorMappings = []errorMapping{
	{domain.ErrUserNotFound, fiber.StatusNotFound, "NOT_FOUND", "usuario no encontrado"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrEmailAlreadyExists, fiber.StatusConflict, "EMAIL_EXISTS", "el email ya está registrado en esta empresa"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", "el recurso ya existe"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", "la operación no es posible en el estado actual"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", ""},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "credenciales inválidas"},
	{domain.ErrLockedOut, fiber.StatusForbidden, "LOCKED_OUT", "cuenta bloqueada por intentos fallidos"},
	{domain.ErrSecondFactorRequired, fiber.StatusUnauthorized, "SECOND_FACTOR_REQUIRED", "se requiere el código de Google Authenticator"},
	{domain.ErrInvalidSecondFactor, fiber.StatusUnauthorized, "INVALID_SECOND_FACTOR", "código de segundo factor inválido"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "cuenta inactiva o sin permiso"},
	{domain.ErrFeatureDisabled, fiber.StatusForbidden, "FEATURE_DISABLED", "función deshabilitada para esta empresa"},
	{domain.ErrCertificateUnknown, fiber.StatusUnauthorized, "UNKNOWN_CERTIFICATE", "certificado de cliente no registrado"},
	{domain.ErrTokenExpired, fiber.StatusBadRequest, "TOKEN_EXPIRED", "el enlace expiró o ya fue utilizado"},
}

// fail traduce errores de dominio a respuestas HTTP; el resto es 500 y se registra.
func fail(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := m.message
			if msg == "" {
				msg = err.Error()
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
		}
	}
	return internalError(c, err)
}

func internalError(c *fiber.Ctx, err error) error {
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// bind parsea el cuerpo (JSON o formulario) y valida las etiquetas del DTO.
// Devuelve el cuerpo del 400 o nil si la entrada es válida.
func bind(c *fiber.Ctx, out any) *dto.ErrorResponse {
	if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if err := validate.Struct(out); err != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: validate.Message(err)}
	}
	return nil
}

// page lee limit/offset de la query con los límites del listado.
func page(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 20)
	offset = c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
