package keystore_test

import (
	"crypto/rsa"
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
)

// Costo scrypt bajo para que los tests no tarden.
const testKDFCost = 1 << 10

func newStore(t *testing.T, password string) *keystore.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.keystore")
	return keystore.Open(path, password, keystore.WithKDFCost(testKDFCost))
}

func fixedGenerator(now time.Time) keystore.Generator {
	return keystore.Generator{KeySize: 1024, Now: func() time.Time { return now }}
}

// ─── Generador ───────────────────────────────────────────────────────────────

func TestSelfSigned_VigenciaYExtensiones(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	cert, key, err := fixedGenerator(now).SelfSigned("localhost", "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, now.Add(-24*time.Hour), cert.NotBefore.UTC())
	assert.Equal(t, now.Add(-24*time.Hour).AddDate(100, 0, 0), cert.NotAfter.UTC())
	assert.Equal(t, "localhost", cert.Subject.CommonName)
	assert.Equal(t, "localhost", cert.Issuer.CommonName)
	assert.Equal(t, now.UnixMilli(), cert.SerialNumber.Int64())
	assert.Equal(t, x509.SHA256WithRSA, cert.SignatureAlgorithm)
	require.Len(t, cert.IPAddresses, 1)
	assert.True(t, cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")))
	assert.Contains(t, cert.ExtKeyUsage, x509.ExtKeyUsageClientAuth)
	assert.Equal(t, 1024, key.N.BitLen())

	// Autofirmado: verifica con su propia llave pública.
	require.NoError(t, cert.CheckSignatureFrom(cert))
}

func TestSelfSigned_SinIP(t *testing.T) {
	cert, _, err := fixedGenerator(time.Now()).SelfSigned("user@example.com", "")
	require.NoError(t, err)
	assert.Empty(t, cert.IPAddresses)
}

func TestSelfSigned_IPInvalida(t *testing.T) {
	_, _, err := fixedGenerator(time.Now()).SelfSigned("localhost", "no-es-ip")
	require.Error(t, err)
}

// ─── Store ───────────────────────────────────────────────────────────────────

func TestStore_ArchivoInexistenteEsVacio(t *testing.T) {
	s := newStore(t, "secret")

	ok, err := s.HasCertificate("server")
	require.NoError(t, err)
	assert.False(t, ok)

	cert, err := s.Certificate("server")
	require.NoError(t, err)
	assert.Nil(t, cert)

	entries, err := s.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "leer no debe crear el archivo")
}

func TestStore_GuardarYCargarCertificado(t *testing.T) {
	s := newStore(t, "secret")
	cert, _, err := fixedGenerator(time.Now()).SelfSigned("client", "")
	require.NoError(t, err)

	require.NoError(t, s.SaveCertificate("client", cert))

	got, err := s.Certificate("client")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cert.Raw, got.Raw)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Una instancia nueva sobre el mismo archivo ve el certificado.
	reopened := keystore.Open(s.Path(), "secret")
	ok, err := reopened.HasCertificate("client")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_PasswordIncorrectoFallaIntegridad(t *testing.T) {
	s := newStore(t, "secret")
	cert, _, err := fixedGenerator(time.Now()).SelfSigned("client", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveCertificate("client", cert))

	other := keystore.Open(s.Path(), "otra")
	_, err = other.HasCertificate("client")
	require.ErrorIs(t, err, keystore.ErrIntegrity)
}

func TestStore_ArchivoAlteradoFallaIntegridad(t *testing.T) {
	s := newStore(t, "secret")
	cert, _, err := fixedGenerator(time.Now()).SelfSigned("client", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveCertificate("client", cert))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	// Cambiar un alias invalida el MAC.
	tampered := []byte(strings.Replace(string(data), "alias: client", "alias: intruso", 1))
	require.NoError(t, os.WriteFile(s.Path(), tampered, 0o600))

	_, err = keystore.Open(s.Path(), "secret").Entries()
	require.ErrorIs(t, err, keystore.ErrIntegrity)
}

func TestStore_CostoKDFExcesivoFallaIntegridad(t *testing.T) {
	s := newStore(t, "secret")
	cert, _, err := fixedGenerator(time.Now()).SelfSigned("client", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveCertificate("client", cert))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Contains(t, string(data), "n: 1024")
	// N fuera de rango se rechaza sin derivar la llave.
	tampered := []byte(strings.Replace(string(data), "n: 1024", "n: 1073741824", 1))
	require.NoError(t, os.WriteFile(s.Path(), tampered, 0o600))

	_, err = keystore.Open(s.Path(), "secret").Entries()
	require.ErrorIs(t, err, keystore.ErrIntegrity)
}

func TestStore_LlavePrivadaYTLS(t *testing.T) {
	s := newStore(t, "secret")
	cert, key, err := fixedGenerator(time.Now()).SelfSigned("localhost", "127.0.0.1")
	require.NoError(t, err)

	require.NoError(t, s.SetKeyEntry("server", key, "entry-pass", []*x509.Certificate{cert}))

	got, err := s.PrivateKey("server", "entry-pass")
	require.NoError(t, err)
	rsaKey, ok := got.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.True(t, key.Equal(rsaKey))

	_, err = s.PrivateKey("server", "mala")
	require.ErrorIs(t, err, keystore.ErrEntryPassword)

	tlsCert, err := s.TLSCertificate("server", "entry-pass")
	require.NoError(t, err)
	require.Len(t, tlsCert.Certificate, 1)
	assert.Equal(t, cert.Raw, tlsCert.Certificate[0])
	assert.Equal(t, cert.Raw, tlsCert.Leaf.Raw)
}

func TestStore_LlaveDeEntradaSinLlave(t *testing.T) {
	s := newStore(t, "secret")
	cert, _, err := fixedGenerator(time.Now()).SelfSigned("ca", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveCertificate("ca", cert))

	_, err = s.PrivateKey("ca", "x")
	require.ErrorIs(t, err, keystore.ErrNoPrivateKey)

	key, err := s.PrivateKey("inexistente", "x")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestStore_Eliminar(t *testing.T) {
	s := newStore(t, "secret")
	cert, _, err := fixedGenerator(time.Now()).SelfSigned("client", "")
	require.NoError(t, err)
	require.NoError(t, s.SaveCertificate("a", cert))
	require.NoError(t, s.SaveCertificate("b", cert))

	require.NoError(t, s.RemoveCertificate("a"))
	require.NoError(t, s.RemoveCertificate("no-existe"))

	entries, err := s.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Alias)
	assert.Equal(t, keystore.KindCertificate, entries[0].Kind)
	assert.Equal(t, keystore.Fingerprint(cert), entries[0].Fingerprint)
}

func TestEnsureServerCertificate_Idempotente(t *testing.T) {
	s := newStore(t, "secret")
	gen := fixedGenerator(time.Now())

	created, err := s.EnsureServerCertificate(gen, "localhost", "127.0.0.1", "server", "pw")
	require.NoError(t, err)
	assert.True(t, created)
	first, err := s.Certificate("server")
	require.NoError(t, err)

	created, err = s.EnsureServerCertificate(gen, "localhost", "127.0.0.1", "server", "pw")
	require.NoError(t, err)
	assert.False(t, created)
	second, err := s.Certificate("server")
	require.NoError(t, err)
	assert.Equal(t, first.Raw, second.Raw)
}

func TestEnsureServerCertificate_ConcurrenteUnaSolaLlave(t *testing.T) {
	s := newStore(t, "secret")
	gen := fixedGenerator(time.Now())

	const workers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.EnsureServerCertificate(gen, "localhost", "", "server", "pw")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 1, created)

	// La llave guardada corresponde al certificado guardado.
	tlsCert, err := s.TLSCertificate("server", "pw")
	require.NoError(t, err)
	key, ok := tlsCert.PrivateKey.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.True(t, key.PublicKey.Equal(tlsCert.Leaf.PublicKey))
}

func TestGenerateSelfSigned_AliasEsHuella(t *testing.T) {
	s := newStore(t, "secret")
	alias, cert, key, err := s.GenerateSelfSigned(fixedGenerator(time.Now()), "user@example.com", "", "pw")
	require.NoError(t, err)
	require.NotNil(t, key)

	assert.Len(t, alias, 64)
	assert.Equal(t, keystore.Fingerprint(cert), alias)

	stored, err := s.Certificate(alias)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, cert.Raw, stored.Raw)
}

func TestPEM_IdaYVuelta(t *testing.T) {
	cert, key, err := fixedGenerator(time.Now()).SelfSigned("client", "")
	require.NoError(t, err)

	parsed, err := keystore.ParseCertificatePEM([]byte(keystore.EncodeCertificatePEM(cert)))
	require.NoError(t, err)
	assert.Equal(t, cert.Raw, parsed.Raw)

	keyPEM, err := keystore.EncodePrivateKeyPEM(key)
	require.NoError(t, err)
	assert.Contains(t, keyPEM, "BEGIN PRIVATE KEY")

	_, err = keystore.ParseCertificatePEM([]byte("basura"))
	require.Error(t, err)
}
