package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/usecase"
)

// CertificateHandler certificados de cliente de los usuarios y certificado del servidor.
type CertificateHandler struct {
	uc *usecase.CertificateUseCase
}

// NewCertificateHandler construye el handler.
func NewCertificateHandler(uc *usecase.CertificateUseCase) *CertificateHandler {
	return &CertificateHandler{uc: uc}
}

// List godoc
// @Summary      Certificados del usuario
// @Tags         certificates
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {array}   dto.CertificateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/users/{id}/certificates [get]
func (h *CertificateHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

// Issue godoc
// @Summary      Emitir certificado de cliente autofirmado
// @Description  La llave privada solo se entrega en esta respuesta.
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                       true  "ID del usuario"
// @Param        body  body  dto.IssueCertificateRequest  false "Nombre común y contraseña de la entrada"
// @Success      201   {object}  dto.IssuedCertificateResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/users/{id}/certificates [post]
func (h *CertificateHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueCertificateRequest
	if len(c.Body()) > 0 {
		if e := bind(c, &in); e != nil {
			return c.Status(fiber.StatusBadRequest).JSON(e)
		}
	}
	out, err := h.uc.Issue(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Upload godoc
// @Summary      Registrar certificado existente (PEM)
// @Tags         certificates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                          true  "ID del usuario"
// @Param        body  body  dto.RegisterCertificateRequest  true  "Certificado PEM"
// @Success      201   {object}  dto.CertificateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/users/{id}/certificates/upload [post]
func (h *CertificateHandler) Upload(c *fiber.Ctx) error {
	var in dto.RegisterCertificateRequest
	if e := bind(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	out, err := h.uc.Register(c.UserContext(), GetCompanyID(c), c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Revoke godoc
// @Summary      Revocar certificado de cliente
// @Tags         certificates
// @Security     BearerAuth
// @Param        alias  path  string  true  "Huella SHA-256 del certificado"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/certificates/{alias} [delete]
func (h *CertificateHandler) Revoke(c *fiber.Ctx) error {
	if err := h.uc.Revoke(c.UserContext(), GetCompanyID(c), c.Params("alias")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Server godoc
// @Summary      Certificado TLS del servidor
// @Tags         certificates
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.CertificateResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/certificates/server [get]
func (h *CertificateHandler) Server(c *fiber.Ctx) error {
	out, err := h.uc.ServerCertificate(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}

