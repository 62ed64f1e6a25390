// Package server arma los conectores HTTP y HTTPS (con autenticación opcional por
// certificado de cliente) sobre una app Fiber.
package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
	"github.com/jhoicas/ilves-api/pkg/config"
)

// Errores del chequeo de confianza del certificado de cliente.
var (
	ErrCertificatePath    = errors.New("certificate paths not supported")
	ErrUnknownCertificate = errors.New("unknown certificate")
)

// verifyTimeout tiempo máximo para resolver el usuario durante el handshake.
const verifyTimeout = 5 * time.Second

// CertificateUsers resuelve el usuario de un certificado de cliente (certcache.UserCertificateCache).
type CertificateUsers interface {
	UserByCertificate(ctx context.Context, cert *x509.Certificate, load bool) (*entity.User, error)
}

// FiberConfig parámetros del servidor HTTP: tamaños de cabecera y buffer, idle timeout,
// sin cabecera Server ni Date.
func FiberConfig(appName string, cfg config.HTTPConfig) fiber.Config {
	return fiber.Config{
		AppName:               appName,
		ReadBufferSize:        cfg.RequestHeaderSize,
		WriteBufferSize:       max(cfg.ResponseHeaderSize, cfg.OutputBufferSize),
		IdleTimeout:           cfg.IdleTimeout,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ServerHeader:          "",
		DisableDefaultDate:    true,
		DisableStartupMessage: true,
	}
}

// ClientAuth modo de autenticación de cliente según configuración.
func ClientAuth(cfg config.HTTPConfig) tls.ClientAuthType {
	switch {
	case cfg.RequireClientAuth:
		return tls.RequireAnyClientCert
	case cfg.RequestClientAuth:
		return tls.RequestClientCert
	default:
		return tls.NoClientCert
	}
}

// VerifyClientCertificate acepta la conexión si no hay certificado, o si hay exactamente
// uno y pertenece a un usuario conocido. No se construyen cadenas.
func VerifyClientCertificate(users CertificateUsers) func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		switch len(rawCerts) {
		case 0:
			return nil
		case 1:
		default:
			return ErrCertificatePath
		}
		cert, err := x509.ParseCertificate(rawCerts[0])
		if err != nil {
			return fmt.Errorf("certificado de cliente inválido: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()
		user, err := users.UserByCertificate(ctx, cert, true)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUnknownCertificate
		}
		return nil
	}
}

// TLSConfig configuración TLS del conector seguro.
func TLSConfig(cert tls.Certificate, cfg config.HTTPConfig, users CertificateUsers) *tls.Config {
	tc := &tls.Config{
		Certificates:  []tls.Certificate{cert},
		MinVersion:    tls.VersionTLS12,
		Renegotiation: tls.RenegotiateNever,
		ClientAuth:    ClientAuth(cfg),
	}
	if tc.ClientAuth != tls.NoClientCert && users != nil {
		tc.VerifyPeerCertificate = VerifyClientCertificate(users)
	}
	return tc
}

// ServerCertificate asegura el certificado del servidor en el key store y lo carga.
func ServerCertificate(store *keystore.Store, ks config.KeyStoreConfig, log zerolog.Logger) (tls.Certificate, error) {
	gen := keystore.Generator{KeySize: ks.KeySize}
	created, err := store.EnsureServerCertificate(gen, ks.SelfSignHostName, ks.SelfSignIPAddress,
		ks.ServerCertificateAlias, ks.ServerCertificatePassword)
	if err != nil {
		return tls.Certificate{}, err
	}
	if created {
		log.Info().
			Str("alias", ks.ServerCertificateAlias).
			Str("cn", ks.SelfSignHostName).
			Str("ip", ks.SelfSignIPAddress).
			Msg("certificado de servidor autofirmado generado")
	}
	return store.TLSCertificate(ks.ServerCertificateAlias, ks.ServerCertificatePassword)
}

// RedirectToTLS middleware que envía a HTTPS las peticiones recibidas por el conector plano.
func RedirectToTLS(cfg config.HTTPConfig) fiber.Handler {
	scheme := cfg.SecureScheme
	if scheme == "" {
		scheme = "https"
	}
	return func(c *fiber.Ctx) error {
		if c.Context().IsTLS() {
			return c.Next()
		}
		host := c.Hostname()
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		target := scheme + "://" + host
		if cfg.TLSPort != 443 {
			target += ":" + strconv.Itoa(cfg.TLSPort)
		}
		return c.Redirect(target+c.OriginalURL(), fiber.StatusMovedPermanently)
	}
}

// Server conectores HTTP/HTTPS de una app Fiber. Un puerto <= 0 deshabilita el conector.
type Server struct {
	app *fiber.App
	cfg config.HTTPConfig
	tls *tls.Config
	log zerolog.Logger

	mu        sync.Mutex
	listeners []net.Listener
}

// New construye el servidor. tlsConfig nil deshabilita HTTPS.
func New(app *fiber.App, cfg config.HTTPConfig, tlsConfig *tls.Config, log zerolog.Logger) *Server {
	return &Server{app: app, cfg: cfg, tls: tlsConfig, log: log}
}

// Listen abre los conectores habilitados. Si uno falla se cierran los ya abiertos.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Port > 0 {
		ln, err := net.Listen("tcp", s.cfg.Addr())
		if err != nil {
			return fmt.Errorf("escuchar HTTP en %s: %w", s.cfg.Addr(), err)
		}
		s.listeners = append(s.listeners, ln)
	}
	if s.cfg.TLSPort > 0 && s.tls != nil {
		ln, err := net.Listen("tcp", s.cfg.TLSAddr())
		if err != nil {
			s.closeListeners()
			return fmt.Errorf("escuchar HTTPS en %s: %w", s.cfg.TLSAddr(), err)
		}
		s.listeners = append(s.listeners, tls.NewListener(ln, s.tls))
	}
	if len(s.listeners) == 0 {
		return errors.New("no hay conectores habilitados (HTTP_PORT y HTTPS_PORT <= 0)")
	}
	return nil
}

// Addrs direcciones efectivas de los conectores abiertos (HTTP primero).
func (s *Server) Addrs() []net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]net.Addr, 0, len(s.listeners))
	for _, ln := range s.listeners {
		out = append(out, ln.Addr())
	}
	return out
}

// Serve atiende todos los conectores y bloquea hasta que alguno termine.
func (s *Server) Serve() error {
	s.mu.Lock()
	listeners := append([]net.Listener(nil), s.listeners...)
	s.mu.Unlock()

	errs := make(chan error, len(listeners))
	for _, ln := range listeners {
		go func(ln net.Listener) {
			s.log.Info().Str("addr", ln.Addr().String()).Msg("conector escuchando")
			errs <- s.app.Listener(ln)
		}(ln)
	}
	return <-errs
}

// Shutdown apagado ordenado de la app (cierra también los conectores).
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) closeListeners() {
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
	s.listeners = nil
}
