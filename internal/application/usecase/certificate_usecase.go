package usecase

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/ports"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// CertificateUseCase certificados de cliente de los usuarios y certificado del servidor.
// Cada certificado vive en el key store bajo su huella y se registra al usuario en la base.
type CertificateUseCase struct {
	users       repository.UserRepository
	certs       repository.ClientCertificateRepository
	store       ports.CertificateStore
	cache       CertificateCache
	serverAlias string
	log         zerolog.Logger
	now         func() time.Time
}

// NewCertificateUseCase construye el caso de uso. cache puede ser nil.
func NewCertificateUseCase(
	users repository.UserRepository,
	certs repository.ClientCertificateRepository,
	store ports.CertificateStore,
	cache CertificateCache,
	serverAlias string,
	log zerolog.Logger,
) *CertificateUseCase {
	return &CertificateUseCase{
		users:       users,
		certs:       certs,
		store:       store,
		cache:       cache,
		serverAlias: serverAlias,
		log:         log,
		now:         time.Now,
	}
}

func (uc *CertificateUseCase) user(ctx context.Context, companyID, userID string) (*entity.User, error) {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.CompanyID != companyID {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Issue emite un certificado autofirmado para el usuario. La llave privada solo se entrega en esta respuesta.
func (uc *CertificateUseCase) Issue(ctx context.Context, companyID, userID string, in dto.IssueCertificateRequest) (*dto.IssuedCertificateResponse, error) {
	u, err := uc.user(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	cn := in.CommonName
	if cn == "" {
		cn = u.EmailAddress
	}
	issued, err := uc.store.IssueClientCertificate(cn, in.Password)
	if err != nil {
		return nil, fmt.Errorf("emitir certificado para %s: %w", u.ID, err)
	}
	rec := uc.record(u.ID, issued.Certificate, issued.Alias, issued.CertificatePEM)
	if err := uc.certs.Create(ctx, rec); err != nil {
		uc.discard(issued.Alias)
		return nil, err
	}
	uc.log.Info().Str("user_id", u.ID).Str("alias", issued.Alias).Msg("certificado de cliente emitido")
	return &dto.IssuedCertificateResponse{
		CertificateResponse: toCertificateResponse(rec, issued.Certificate.Issuer.String()),
		CertificatePEM:      issued.CertificatePEM,
		PrivateKeyPEM:       issued.PrivateKeyPEM,
	}, nil
}

// Register asocia al usuario un certificado existente (PEM) y lo agrega al key store como confiable.
func (uc *CertificateUseCase) Register(ctx context.Context, companyID, userID string, in dto.RegisterCertificateRequest) (*dto.CertificateResponse, error) {
	u, err := uc.user(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	cert, err := uc.store.ParseCertificatePEM([]byte(in.CertificatePEM))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if uc.now().After(cert.NotAfter) {
		return nil, fmt.Errorf("%w: el certificado venció el %s", domain.ErrInvalidInput, cert.NotAfter.Format(time.DateOnly))
	}
	alias := uc.store.Fingerprint(cert)
	existing, err := uc.certs.GetByAlias(ctx, alias)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if err := uc.store.SaveCertificate(alias, cert); err != nil {
		return nil, err
	}
	rec := uc.record(u.ID, cert, alias, in.CertificatePEM)
	if err := uc.certs.Create(ctx, rec); err != nil {
		uc.discard(alias)
		return nil, err
	}
	uc.invalidateAlias(alias)
	resp := toCertificateResponse(rec, cert.Issuer.String())
	return &resp, nil
}

// List certificados del usuario (más recientes primero).
func (uc *CertificateUseCase) List(ctx context.Context, companyID, userID string) ([]dto.CertificateResponse, error) {
	if _, err := uc.user(ctx, companyID, userID); err != nil {
		return nil, err
	}
	list, err := uc.certs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CertificateResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCertificateResponse(c, ""))
	}
	return out, nil
}

// Revoke elimina el certificado del registro, del key store y del caché.
func (uc *CertificateUseCase) Revoke(ctx context.Context, companyID, alias string) error {
	rec, err := uc.certs.GetByAlias(ctx, alias)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if _, err := uc.user(ctx, companyID, rec.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if err := uc.certs.Delete(ctx, alias); err != nil {
		return err
	}
	uc.invalidateAlias(alias)
	if err := uc.store.RemoveCertificate(alias); err != nil {
		return fmt.Errorf("quitar %s del key store: %w", alias, err)
	}
	uc.log.Info().Str("user_id", rec.UserID).Str("alias", alias).Msg("certificado de cliente revocado")
	return nil
}

// ServerCertificate describe el certificado TLS del servidor.
func (uc *CertificateUseCase) ServerCertificate(_ context.Context) (*dto.CertificateResponse, error) {
	cert, err := uc.store.Certificate(uc.serverAlias)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.CertificateResponse{
		Alias:     uc.serverAlias,
		Subject:   cert.Subject.String(),
		Issuer:    cert.Issuer.String(),
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
	}, nil
}

func (uc *CertificateUseCase) invalidateAlias(alias string) {
	if uc.cache != nil {
		uc.cache.Invalidate(alias)
	}
}

// discard deshace el alta en el key store si falló el registro en la base.
func (uc *CertificateUseCase) discard(alias string) {
	if err := uc.store.RemoveCertificate(alias); err != nil {
		uc.log.Error().Err(err).Str("alias", alias).Msg("quitar certificado huérfano del key store")
	}
}

func (uc *CertificateUseCase) record(userID string, cert *x509.Certificate, alias, certPEM string) *entity.ClientCertificate {
	return &entity.ClientCertificate{
		Alias:          alias,
		UserID:         userID,
		Subject:        cert.Subject.String(),
		CertificatePEM: certPEM,
		NotBefore:      cert.NotBefore,
		NotAfter:       cert.NotAfter,
		Created:        uc.now(),
	}
}

func toCertificateResponse(c *entity.ClientCertificate, issuer string) dto.CertificateResponse {
	return dto.CertificateResponse{
		Alias:     c.Alias,
		UserID:    c.UserID,
		Subject:   c.Subject,
		Issuer:    issuer,
		NotBefore: c.NotBefore,
		NotAfter:  c.NotAfter,
		Created:   c.Created,
	}
}
