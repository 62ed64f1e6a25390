package auth_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ilves-api/internal/application/auth"
	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/infrastructure/certcache"
	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
	"github.com/jhoicas/ilves-api/internal/infrastructure/mail"
	"github.com/jhoicas/ilves-api/internal/testutil/memrepo"
	"github.com/jhoicas/ilves-api/pkg/jwt"
)

const testSecret = "test-secret"

type fixture struct {
	uc      *auth.AuthUseCase
	store   *memrepo.Store
	mailer  *mail.LogMailer
	company *entity.Company
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memrepo.New()
	mailer := mail.NewLogMailer(zerolog.Nop())
	company := &entity.Company{
		ID:                  "c1",
		Name:                "Acme",
		Host:                "*",
		EmailPasswordReset:  true,
		MaxFailedLoginCount: 3,
	}
	uc := auth.NewAuthUseCase(
		store.Users(), store.Devices(), store.Resets(), store, mailer,
		auth.JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "ilves"},
		auth.Options{ResetURLBase: "https://acme.test/reset", Logger: zerolog.Nop()},
	)
	return &fixture{uc: uc, store: store, mailer: mailer, company: company}
}

func (f *fixture) addUser(t *testing.T, id, email, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{
		ID:           id,
		CompanyID:    f.company.ID,
		FirstName:    "Ana",
		LastName:     "Pérez",
		EmailAddress: email,
		PasswordHash: string(hash),
		Role:         entity.RoleAdministrator,
		Status:       entity.UserStatusActive,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

// ─── Login ───────────────────────────────────────────────────────────────────

func TestLogin_PasswordOK(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")

	resp, err := f.uc.Login(context.Background(), f.company, dto.LoginRequest{
		Email: "  ANA@acme.test ", Password: "secreto123",
	})
	require.NoError(t, err)
	assert.Equal(t, jwt.MethodPassword, resp.AuthMethod)
	assert.Equal(t, "u1", resp.User.ID)
	assert.False(t, resp.PasswordExpired)

	claims, err := jwt.Parse(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "c1", claims.CompanyID)
	assert.Equal(t, entity.RoleAdministrator, claims.Role)
}

func TestLogin_UsuarioDesconocido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Login(context.Background(), f.company, dto.LoginRequest{Email: "x@acme.test", Password: "x"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_OtraEmpresaNoVeAlUsuario(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")

	other := &entity.Company{ID: "c2", Name: "Otra"}
	_, err := f.uc.Login(context.Background(), other, dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_FallosBloqueanCuenta(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")
	ctx := context.Background()
	bad := dto.LoginRequest{Email: "ana@acme.test", Password: "mala"}

	_, err := f.uc.Login(ctx, f.company, bad)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.Login(ctx, f.company, bad)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.Login(ctx, f.company, bad)
	require.ErrorIs(t, err, domain.ErrLockedOut)

	// Bloqueada: ni la contraseña correcta entra.
	_, err = f.uc.Login(ctx, f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123"})
	require.ErrorIs(t, err, domain.ErrLockedOut)

	u, err := f.store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.LockedOut)
	assert.Equal(t, 3, u.FailedLoginCount)
}

func TestLogin_ExitoReiniciaContador(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")
	ctx := context.Background()

	_, err := f.uc.Login(ctx, f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "mala"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.Login(ctx, f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123"})
	require.NoError(t, err)

	u, err := f.store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, u.FailedLoginCount)
}

func TestLogin_SinMaximoNoBloquea(t *testing.T) {
	f := newFixture(t)
	f.company.MaxFailedLoginCount = 0
	f.addUser(t, "u1", "ana@acme.test", "secreto123")

	for i := 0; i < 5; i++ {
		_, err := f.uc.Login(context.Background(), f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "mala"})
		require.ErrorIs(t, err, domain.ErrUnauthorized)
	}
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "u1", "ana@acme.test", "secreto123")
	u.Status = entity.UserStatusInactive
	require.NoError(t, f.store.Users().Update(context.Background(), u))

	_, err := f.uc.Login(context.Background(), f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123"})
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_PasswordVencido(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "u1", "ana@acme.test", "secreto123")
	past := time.Now().Add(-time.Hour)
	u.PasswordExpirationDate = &past
	require.NoError(t, f.store.Users().Update(context.Background(), u))

	resp, err := f.uc.Login(context.Background(), f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123"})
	require.NoError(t, err)
	assert.True(t, resp.PasswordExpired)
}

// ─── Segundo factor ──────────────────────────────────────────────────────────

func TestLogin_GoogleAuthenticator(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")
	ctx := context.Background()

	enrollment, err := f.uc.EnrollAuthenticator(ctx, f.company, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.Secret)
	assert.True(t, strings.HasPrefix(enrollment.URL, "otpauth://totp/"))

	status, err := f.uc.Authenticator(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.DeviceTypeGoogleAuthenticator, status.Type)

	req := dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123"}
	_, err = f.uc.Login(ctx, f.company, req)
	require.ErrorIs(t, err, domain.ErrSecondFactorRequired)

	req.Code = "000000"
	if code, _ := auth.TOTPCode(enrollment.Secret, time.Now()); code == req.Code {
		req.Code = "111111"
	}
	_, err = f.uc.Login(ctx, f.company, req)
	require.ErrorIs(t, err, domain.ErrInvalidSecondFactor)

	req.Code, err = auth.TOTPCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	resp, err := f.uc.Login(ctx, f.company, req)
	require.NoError(t, err)
	assert.Equal(t, jwt.MethodTOTP, resp.AuthMethod)
}

func TestLogin_CodigoTOTPNoSeReutiliza(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")
	ctx := context.Background()
	enrollment, err := f.uc.EnrollAuthenticator(ctx, f.company, "u1")
	require.NoError(t, err)

	code, err := auth.TOTPCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	req := dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123", Code: code}

	_, err = f.uc.Login(ctx, f.company, req)
	require.NoError(t, err)

	_, err = f.uc.Login(ctx, f.company, req)
	require.ErrorIs(t, err, domain.ErrInvalidSecondFactor)

	// Un código del paso anterior tampoco vale después de aceptar el actual.
	req.Code, err = auth.TOTPCode(enrollment.Secret, time.Now().Add(-30*time.Second))
	require.NoError(t, err)
	_, err = f.uc.Login(ctx, f.company, req)
	require.ErrorIs(t, err, domain.ErrInvalidSecondFactor)
}

func TestLogin_CodigoNoSustituyePassword(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")
	ctx := context.Background()
	enrollment, err := f.uc.EnrollAuthenticator(ctx, f.company, "u1")
	require.NoError(t, err)

	code, err := auth.TOTPCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	_, err = f.uc.Login(ctx, f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "mala", Code: code})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRemoveAuthenticator(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")
	ctx := context.Background()
	_, err := f.uc.EnrollAuthenticator(ctx, f.company, "u1")
	require.NoError(t, err)

	require.NoError(t, f.uc.RemoveAuthenticator(ctx, "u1"))
	status, err := f.uc.Authenticator(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.DeviceTypeNone, status.Type)

	_, err = f.uc.Login(ctx, f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "secreto123"})
	require.NoError(t, err)
}

// ─── Certificado ─────────────────────────────────────────────────────────────

func TestLoginWithCertificate(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "u1", "ana@acme.test", "secreto123")

	resp, err := f.uc.LoginWithCertificate(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, jwt.MethodCertificate, resp.AuthMethod)

	_, err = f.uc.LoginWithCertificate(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrCertificateUnknown)

	u.LockedOut = true
	_, err = f.uc.LoginWithCertificate(context.Background(), u)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_BloqueoInvalidaCacheDeCertificados(t *testing.T) {
	store := memrepo.New()
	company := &entity.Company{ID: "c1", Name: "Acme", Host: "*", MaxFailedLoginCount: 1}
	cache := certcache.New(store.Certificates(), 10, time.Hour)
	uc := auth.NewAuthUseCase(
		store.Users(), store.Devices(), store.Resets(), store, mail.NewLogMailer(zerolog.Nop()),
		auth.JWTConfig{Secret: testSecret, ExpMinutes: 60, Issuer: "ilves"},
		auth.Options{Certificates: cache, Logger: zerolog.Nop()},
	)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, &entity.User{
		ID: "u1", CompanyID: company.ID, EmailAddress: "ana@acme.test", PasswordHash: string(hash),
		Role: entity.RoleUser, Status: entity.UserStatusActive,
	}))
	cert, _, err := keystore.Generator{KeySize: 1024}.SelfSigned("ana@acme.test", "")
	require.NoError(t, err)
	require.NoError(t, store.Certificates().Create(ctx, &entity.ClientCertificate{
		Alias: keystore.Fingerprint(cert), UserID: "u1", Subject: cert.Subject.String(),
		CertificatePEM: keystore.EncodeCertificatePEM(cert), NotBefore: cert.NotBefore, NotAfter: cert.NotAfter,
		Created: time.Now(),
	}))

	cached, err := cache.UserByCertificate(ctx, cert, true)
	require.NoError(t, err)
	require.NotNil(t, cached)

	_, err = uc.Login(ctx, company, dto.LoginRequest{Email: "ana@acme.test", Password: "mala"})
	require.ErrorIs(t, err, domain.ErrLockedOut)

	// Con la cuenta bloqueada el certificado ya no identifica a nadie.
	u, err := cache.UserByCertificate(ctx, cert, true)
	require.NoError(t, err)
	assert.Nil(t, u)
}

// ─── Registro ────────────────────────────────────────────────────────────────

func TestRegister_Deshabilitado(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Register(context.Background(), f.company, dto.RegisterRequest{
		EmailAddress: "nuevo@acme.test", Password: "secreto123", LastName: "Nuevo",
	})
	require.ErrorIs(t, err, domain.ErrFeatureDisabled)
}

func TestRegister_CreaUsuarioConRolUser(t *testing.T) {
	f := newFixture(t)
	f.company.SelfRegistration = true
	f.company.PasswordValidityPeriodDays = 90
	ctx := context.Background()

	resp, err := f.uc.Register(ctx, f.company, dto.RegisterRequest{
		EmailAddress: "Nuevo@Acme.test", Password: "secreto123", FirstName: "Luis", LastName: "Nuevo",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleUser, resp.Role)
	assert.Equal(t, "nuevo@acme.test", resp.EmailAddress)
	require.NotNil(t, resp.PasswordExpirationDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 90), *resp.PasswordExpirationDate, time.Minute)

	_, err = f.uc.Register(ctx, f.company, dto.RegisterRequest{
		EmailAddress: "nuevo@acme.test", Password: "otro12345", LastName: "Dup",
	})
	require.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

// ─── Restablecimiento de contraseña ──────────────────────────────────────────

func tokenFromMail(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "https://acme.test/reset?token=")
	require.GreaterOrEqual(t, i, 0, "el correo debe incluir el enlace")
	u, err := url.Parse(strings.Fields(body[i:])[0])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestPasswordReset_FlujoCompleto(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "u1", "ana@acme.test", "secreto123")
	u.LockedOut = true
	u.FailedLoginCount = 3
	require.NoError(t, f.store.Users().Update(context.Background(), u))
	ctx := context.Background()

	require.NoError(t, f.uc.RequestPasswordReset(ctx, f.company, dto.PasswordResetRequest{Email: "ana@acme.test"}))
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@acme.test", sent[0].To)
	token := tokenFromMail(t, sent[0].Text)

	confirm := dto.PasswordResetConfirmRequest{Token: token, Password: "nueva-clave-1"}
	require.NoError(t, f.uc.ResetPassword(ctx, f.company, confirm))

	// Uso único.
	require.ErrorIs(t, f.uc.ResetPassword(ctx, f.company, confirm), domain.ErrTokenExpired)

	resp, err := f.uc.Login(ctx, f.company, dto.LoginRequest{Email: "ana@acme.test", Password: "nueva-clave-1"})
	require.NoError(t, err, "la cuenta debe quedar desbloqueada")
	assert.Equal(t, "u1", resp.User.ID)
}

func TestPasswordReset_EmailDesconocidoNoRevela(t *testing.T) {
	f := newFixture(t)
	err := f.uc.RequestPasswordReset(context.Background(), f.company, dto.PasswordResetRequest{Email: "nadie@acme.test"})
	require.NoError(t, err)
	assert.Empty(t, f.mailer.Sent())
	assert.Zero(t, f.store.PendingResets())
}

func TestPasswordReset_TokenVencido(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1", "ana@acme.test", "secreto123")
	ctx := context.Background()

	now := time.Now()
	uc := auth.NewAuthUseCase(
		f.store.Users(), f.store.Devices(), f.store.Resets(), f.store, f.mailer,
		auth.JWTConfig{Secret: testSecret, ExpMinutes: 60},
		auth.Options{
			ResetURLBase: "https://acme.test/reset",
			ResetTTL:     time.Hour,
			Logger:       zerolog.Nop(),
			Now:          func() time.Time { return now },
		},
	)
	require.NoError(t, uc.RequestPasswordReset(ctx, f.company, dto.PasswordResetRequest{Email: "ana@acme.test"}))
	token := tokenFromMail(t, f.mailer.Sent()[0].Text)

	now = now.Add(2 * time.Hour)
	err := uc.ResetPassword(ctx, f.company, dto.PasswordResetConfirmRequest{Token: token, Password: "nueva-clave-1"})
	require.ErrorIs(t, err, domain.ErrTokenExpired)
}

func TestPasswordReset_Deshabilitado(t *testing.T) {
	f := newFixture(t)
	f.company.EmailPasswordReset = false
	err := f.uc.RequestPasswordReset(context.Background(), f.company, dto.PasswordResetRequest{Email: "ana@acme.test"})
	require.ErrorIs(t, err, domain.ErrFeatureDisabled)
}
