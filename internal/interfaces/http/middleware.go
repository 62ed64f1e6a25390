package http

import (
	"context"
	"crypto/x509"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/infrastructure/metrics"
	"github.com/jhoicas/ilves-api/pkg/jwt"
)

// Locals keys para la empresa del host y el usuario autenticado.
const (
	LocalCompany    = "company"
	LocalUserID     = "user_id"
	LocalCompanyID  = "company_id"
	LocalRole       = "role"
	LocalAuthMethod = "auth_method"
)

// TenantResolver resuelve la empresa a partir del host (usecase.CompanyUseCase).
type TenantResolver interface {
	ForHost(ctx context.Context, host string) (*entity.Company, error)
}

// CertificateUsers usuario dueño de un certificado de cliente (certcache.UserCertificateCache).
type CertificateUsers interface {
	UserByCertificate(ctx context.Context, cert *x509.Certificate, load bool) (*entity.User, error)
}

// TenantMiddleware resuelve la empresa por el header Host y la deja en c.Locals.
func TenantMiddleware(resolver TenantResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		company, err := resolver.ForHost(c.UserContext(), c.Hostname())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "UNKNOWN_TENANT", Message: "no hay empresa para este host"})
			}
			return internalError(c, err)
		}
		c.Locals(LocalCompany, company)
		return c.Next()
	}
}

// AuthMiddleware acepta un Bearer Token JWT o, si no hay header Authorization, un certificado
// de cliente verificado en la conexión TLS. Deja usuario, empresa, rol y método en c.Locals.
// Si TenantMiddleware corrió antes, la empresa del token debe coincidir con la del host.
func AuthMiddleware(jwtSecret string, certs CertificateUsers) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			if cert := PeerCertificate(c); cert != nil && certs != nil {
				return certificateAuth(c, certs, cert)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if company := GetCompany(c); company != nil && company.ID != claims.CompanyID {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "WRONG_TENANT", Message: "el token pertenece a otra empresa"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalCompanyID, claims.CompanyID)
		c.Locals(LocalRole, claims.Role)
		c.Locals(LocalAuthMethod, claims.AuthMethod)
		return c.Next()
	}
}

func certificateAuth(c *fiber.Ctx, certs CertificateUsers, cert *x509.Certificate) error {
	user, err := certs.UserByCertificate(c.UserContext(), cert, true)
	if err != nil {
		return internalError(c, err)
	}
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNKNOWN_CERTIFICATE", Message: "certificado de cliente no registrado"})
	}
	if company := GetCompany(c); company != nil && company.ID != user.CompanyID {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "WRONG_TENANT", Message: "el certificado pertenece a otra empresa"})
	}
	c.Locals(LocalUserID, user.ID)
	c.Locals(LocalCompanyID, user.CompanyID)
	c.Locals(LocalRole, user.Role)
	c.Locals(LocalAuthMethod, jwt.MethodCertificate)
	return c.Next()
}

// PeerCertificate certificado de cliente presentado en la conexión TLS (nil si no hay).
func PeerCertificate(c *fiber.Ctx) *x509.Certificate {
	state := c.Context().TLSConnectionState()
	if state == nil || len(state.PeerCertificates) == 0 {
		return nil
	}
	return state.PeerCertificates[0]
}

// RequireRole permite el paso solo a los roles indicados. Debe usarse después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no incluye rol"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para este recurso"})
	}
}

// SiteCompany identifica la empresa del sitio.
type SiteCompany interface {
	IsDefault(company *entity.Company) bool
}

// RequireSiteCompany restringe la ruta a usuarios de la empresa por defecto. Debe ir después de
// AuthMiddleware, que ya garantiza que el token pertenece a la empresa del host.
func RequireSiteCompany(site SiteCompany) fiber.Handler {
	return func(c *fiber.Ctx) error {
		company := GetCompany(c)
		if company == nil || company.ID != GetCompanyID(c) || !site.IsDefault(company) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo los administradores del sitio gestionan empresas"})
		}
		return c.Next()
	}
}

// Metrics cuenta las peticiones por método, ruta registrada y código de estado.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		metrics.HTTPRequests.WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).Inc()
		return err
	}
}

// GetCompany devuelve la empresa del host (después de TenantMiddleware).
func GetCompany(c *fiber.Ctx) *entity.Company {
	company, _ := c.Locals(LocalCompany).(*entity.Company)
	return company
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetCompanyID devuelve el CompanyID del contexto (después del middleware de auth).
func GetCompanyID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalCompanyID).(string)
	return s
}

// GetRole devuelve el rol del usuario autenticado.
func GetRole(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRole).(string)
	return s
}

// GetAuthMethod devuelve el método con el que se autenticó el usuario.
func GetAuthMethod(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalAuthMethod).(string)
	return s
}
