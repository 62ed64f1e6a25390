package usecase_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/usecase"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
	"github.com/jhoicas/ilves-api/internal/testutil/memrepo"
)

type certFixture struct {
	uc     *usecase.CertificateUseCase
	store  *memrepo.Store
	ks     *keystore.Store
	issuer *keystore.Issuer
	cache  *fakeCache
}

func newCertFixture(t *testing.T) *certFixture {
	t.Helper()
	store := memrepo.New()
	require.NoError(t, store.Users().Create(context.Background(), &entity.User{
		ID: "u1", CompanyID: "c1", EmailAddress: "ana@acme.test", Status: entity.UserStatusActive,
	}))
	ks := keystore.Open(filepath.Join(t.TempDir(), "site.keystore"), "secret", keystore.WithKDFCost(1<<10))
	issuer := keystore.NewIssuer(ks, keystore.Generator{KeySize: 1024})
	cache := &fakeCache{}
	uc := usecase.NewCertificateUseCase(store.Users(), store.Certificates(), issuer, cache, "server", zerolog.Nop())
	return &certFixture{uc: uc, store: store, ks: ks, issuer: issuer, cache: cache}
}

func TestCertificate_IssueRegistraYGuarda(t *testing.T) {
	f := newCertFixture(t)
	ctx := context.Background()

	issued, err := f.uc.Issue(ctx, "c1", "u1", dto.IssueCertificateRequest{Password: "pw12"})
	require.NoError(t, err)
	assert.Len(t, issued.Alias, 64)
	assert.Equal(t, "CN=ana@acme.test", issued.Subject)
	assert.Contains(t, issued.PrivateKeyPEM, "BEGIN PRIVATE KEY")
	assert.Contains(t, issued.CertificatePEM, "BEGIN CERTIFICATE")

	user, err := f.store.Certificates().FindUserByAlias(ctx, issued.Alias)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)

	ok, err := f.ks.HasCertificate(issued.Alias)
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := f.uc.List(ctx, "c1", "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, issued.Alias, list[0].Alias)
}

func TestCertificate_UsuarioDeOtraEmpresa(t *testing.T) {
	f := newCertFixture(t)
	_, err := f.uc.Issue(context.Background(), "c2", "u1", dto.IssueCertificateRequest{})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCertificate_RegisterPEM(t *testing.T) {
	f := newCertFixture(t)
	ctx := context.Background()
	cert, _, err := keystore.Generator{KeySize: 1024}.SelfSigned("externo", "")
	require.NoError(t, err)
	pemText := keystore.EncodeCertificatePEM(cert)

	resp, err := f.uc.Register(ctx, "c1", "u1", dto.RegisterCertificateRequest{CertificatePEM: pemText})
	require.NoError(t, err)
	assert.Equal(t, keystore.Fingerprint(cert), resp.Alias)
	assert.Equal(t, []string{resp.Alias}, f.cache.fingerprints)

	_, err = f.uc.Register(ctx, "c1", "u1", dto.RegisterCertificateRequest{CertificatePEM: pemText})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = f.uc.Register(ctx, "c1", "u1", dto.RegisterCertificateRequest{CertificatePEM: "basura"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCertificate_Revoke(t *testing.T) {
	f := newCertFixture(t)
	ctx := context.Background()
	issued, err := f.uc.Issue(ctx, "c1", "u1", dto.IssueCertificateRequest{})
	require.NoError(t, err)

	require.ErrorIs(t, f.uc.Revoke(ctx, "c2", issued.Alias), domain.ErrNotFound)
	require.NoError(t, f.uc.Revoke(ctx, "c1", issued.Alias))
	require.ErrorIs(t, f.uc.Revoke(ctx, "c1", issued.Alias), domain.ErrNotFound)

	ok, err := f.ks.HasCertificate(issued.Alias)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, f.cache.fingerprints, issued.Alias)
}

func TestCertificate_ServerCertificate(t *testing.T) {
	f := newCertFixture(t)
	ctx := context.Background()

	_, err := f.uc.ServerCertificate(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.ks.EnsureServerCertificate(keystore.Generator{KeySize: 1024}, "localhost", "127.0.0.1", "server", "pw")
	require.NoError(t, err)
	resp, err := f.uc.ServerCertificate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "server", resp.Alias)
	assert.Equal(t, "CN=localhost", resp.Subject)
}
