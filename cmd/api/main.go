// @title           Ilves API
// @version         1.0
// @description     Consola multi-tenant: empresas, clientes, usuarios y certificados de cliente.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jhoicas/ilves-api/docs"
	"github.com/jhoicas/ilves-api/internal/application/auth"
	"github.com/jhoicas/ilves-api/internal/application/usecase"
	"github.com/jhoicas/ilves-api/internal/infrastructure/certcache"
	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
	"github.com/jhoicas/ilves-api/internal/infrastructure/mail"
	"github.com/jhoicas/ilves-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/ilves-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ilves-api/internal/infrastructure/postgres"
	"github.com/jhoicas/ilves-api/internal/infrastructure/server"
	httpRouter "github.com/jhoicas/ilves-api/internal/interfaces/http"
	"github.com/jhoicas/ilves-api/pkg/config"
	"github.com/jhoicas/ilves-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	// Pools por unidad/categoría; el primer Get aplica las migraciones.
	ctx := context.Background()
	pools := postgres.NewPoolRegistry(cfg, log.Component("postgres"))
	defer pools.Close()
	pool, err := pools.Get(ctx, postgres.UnitSite, "site")
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}

	companyRepo := postgres.NewCompanyRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	certRepo := postgres.NewClientCertificateRepository(pool)
	deviceRepo := postgres.NewAuthenticationDeviceRepository(pool)
	resetRepo := postgres.NewPasswordResetRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	certCache := certcache.New(certRepo, cfg.Cache.ClientCertificateSize, cfg.Cache.ClientCertificateTTL)

	// Key store del sitio y certificado del servidor (autofirmado si no existe).
	ks := keystore.Open(cfg.KeyStore.Path, cfg.KeyStore.Password)
	var tlsConfig *tls.Config
	if cfg.HTTP.TLSPort > 0 {
		serverCert, err := server.ServerCertificate(ks, cfg.KeyStore, log.Component("keystore"))
		if err != nil {
			log.Fatal().Err(err).Str("path", ks.Path()).Msg("certificado del servidor")
		}
		tlsConfig = server.TLSConfig(serverCert, cfg.HTTP, certCache)
	}
	issuer := keystore.NewIssuer(ks, keystore.Generator{KeySize: cfg.KeyStore.KeySize})

	companyUC := usecase.NewCompanyUseCase(companyRepo, cfg.Site.DefaultCompanyHost)
	customerUC := usecase.NewCustomerUseCase(customerRepo, companyRepo, txRunner, infrapdf.NewMarotoPDFGenerator())
	userUC := usecase.NewUserUseCase(userRepo, certCache)
	certificateUC := usecase.NewCertificateUseCase(userRepo, certRepo, issuer, certCache,
		cfg.KeyStore.ServerCertificateAlias, log.Component("certificates"))
	authUC := auth.NewAuthUseCase(
		userRepo, deviceRepo, resetRepo, txRunner,
		mail.New(cfg.Mail, log.Component("mail")),
		auth.JWTConfig{
			Secret:     cfg.JWT.Secret,
			ExpMinutes: cfg.JWT.Expiration,
			Issuer:     cfg.JWT.Issuer,
		},
		auth.Options{
			ResetURLBase:           cfg.Mail.ResetURLBase,
			ClientCertificateLogin: tlsConfig != nil && cfg.HTTP.RequestClientAuth,
			Certificates:           certCache,
			Logger:                 log.Component("auth"),
		},
	)

	app := fiber.New(server.FiberConfig(cfg.App.Name, cfg.HTTP))
	app.Use(recover.New())
	if cfg.HTTP.RedirectToTLS && cfg.HTTP.Port > 0 && tlsConfig != nil {
		app.Use(server.RedirectToTLS(cfg.HTTP))
	}

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Ilves API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	var certUsers httpRouter.CertificateUsers
	if tlsConfig != nil {
		certUsers = certCache
	}
	httpRouter.Router(app, httpRouter.RouterDeps{
		CompanyUC:     companyUC,
		CustomerUC:    customerUC,
		UserUC:        userUC,
		CertificateUC: certificateUC,
		AuthUC:        authUC,
		Certificates:  certUsers,
		JWTSecret:     cfg.JWT.Secret,
	})

	srv := server.New(app, cfg.HTTP, tlsConfig, log.Component("server"))
	if err := srv.Listen(); err != nil {
		log.Fatal().Err(err).Msg("abrir conectores")
	}
	go func() {
		if err := srv.Serve(); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
