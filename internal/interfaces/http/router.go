package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ilves-api/internal/application/auth"
	"github.com/jhoicas/ilves-api/internal/application/usecase"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC     *usecase.CompanyUseCase
	CustomerUC    *usecase.CustomerUseCase
	UserUC        *usecase.UserUseCase
	CertificateUC *usecase.CertificateUseCase
	AuthUC        *auth.AuthUseCase
	// Certificates usuarios por certificado de cliente; nil si no hay conector HTTPS.
	Certificates CertificateUsers
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", Metrics(), TenantMiddleware(deps.CompanyUC))

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Certificates)
	authGroup := api.Group("/auth")
	authGroup.Get("/options", authHandler.Options)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/certificate", authHandler.Certificate)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/password-reset", authHandler.PasswordReset)
	authGroup.Post("/password-reset/confirm", authHandler.PasswordResetConfirm)

	// Rutas protegidas (Bearer Token o certificado de cliente)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.Certificates))
	admin := RequireRole(entity.RoleAdministrator)

	me := protected.Group("/me")
	me.Get("/", authHandler.Me)
	me.Get("/authenticator", authHandler.Authenticator)
	me.Post("/authenticator", authHandler.EnrollAuthenticator)
	me.Delete("/authenticator", authHandler.RemoveAuthenticator)

	// Customers (cualquier rol de la empresa)
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers := protected.Group("/customers")
	customers.Get("/", customerHandler.List)
	customers.Post("/", customerHandler.Create)
	customers.Get("/export.pdf", customerHandler.ExportPDF)
	customers.Post("/import", customerHandler.Import)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", customerHandler.Delete)

	// Companies (administrador de la empresa por defecto)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies := protected.Group("/companies", admin, RequireSiteCompany(deps.CompanyUC))
	companies.Get("/", companyHandler.List)
	companies.Post("/", companyHandler.Create)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Put("/:id", companyHandler.Update)
	companies.Delete("/:id", companyHandler.Delete)

	// Users y sus certificados (administrador)
	userHandler := NewUserHandler(deps.UserUC)
	certHandler := NewCertificateHandler(deps.CertificateUC)
	users := protected.Group("/users", admin)
	users.Get("/", userHandler.List)
	users.Post("/", userHandler.Create)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)
	users.Post("/:id/unlock", userHandler.Unlock)
	users.Get("/:id/certificates", certHandler.List)
	users.Post("/:id/certificates", certHandler.Issue)
	users.Post("/:id/certificates/upload", certHandler.Upload)

	certificates := protected.Group("/certificates", admin)
	certificates.Get("/server", certHandler.Server)
	certificates.Delete("/:alias", certHandler.Revoke)
}
