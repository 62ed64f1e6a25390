package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
)

// run ejecuta ilvesctl con args y devuelve stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	out := new(bytes.Buffer)
	root.SetOut(out)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func keystoreArgs(path string, args ...string) []string {
	return append([]string{"keystore", "--keystore", path, "--password", "secret", "--kdf-cost", "1024"}, args...)
}

// ─── keystore ────────────────────────────────────────────────────────────────

func TestKeystore_GenerarListarEliminar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.keystore")
	certOut := filepath.Join(dir, "cert.pem")
	keyOut := filepath.Join(dir, "key.pem")

	out, err := run(t, keystoreArgs(path, "generate",
		"--cn", "ana@example.com", "--entry-password", "pw", "--key-size", "1024",
		"--cert-out", certOut, "--key-out", keyOut)...)
	require.NoError(t, err)
	alias := strings.TrimSpace(out)
	assert.Len(t, alias, 64)

	certPEM, err := os.ReadFile(certOut)
	require.NoError(t, err)
	cert, err := keystore.ParseCertificatePEM(certPEM)
	require.NoError(t, err)
	assert.Equal(t, alias, keystore.Fingerprint(cert))

	info, err := os.Stat(keyOut)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = run(t, keystoreArgs(path, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "ALIAS")
	assert.Contains(t, out, alias)
	assert.Contains(t, out, "CN=ana@example.com")

	_, err = run(t, keystoreArgs(path, "remove", alias)...)
	require.NoError(t, err)

	out, err = run(t, keystoreArgs(path, "list")...)
	require.NoError(t, err)
	assert.NotContains(t, out, alias)
}

func TestKeystore_GenerarRequiereCN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.keystore")
	_, err := run(t, keystoreArgs(path, "generate", "--entry-password", "pw")...)
	require.Error(t, err)
}

func TestKeystore_PasswordIncorrecto(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.keystore")
	_, err := run(t, keystoreArgs(path, "generate", "--cn", "x", "--entry-password", "pw", "--key-size", "1024")...)
	require.NoError(t, err)

	_, err = run(t, "keystore", "--keystore", path, "--password", "otra", "list")
	require.ErrorIs(t, err, keystore.ErrIntegrity)
}

func TestKeystore_InspectP12Invalido(t *testing.T) {
	file := filepath.Join(t.TempDir(), "basura.p12")
	require.NoError(t, os.WriteFile(file, []byte("no es pkcs12"), 0o600))

	_, err := run(t, "keystore", "inspect-p12", file, "--p12-password", "x")
	require.Error(t, err)
}

// ─── migrate / customers ─────────────────────────────────────────────────────

func TestMigrateDown_StepsInvalidos(t *testing.T) {
	_, err := run(t, "migrate", "down", "--steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}

func TestCustomersImport_RequiereEmpresa(t *testing.T) {
	file := filepath.Join(t.TempDir(), "clientes.csv")
	require.NoError(t, os.WriteFile(file, []byte("first_name,last_name\nAna,Zapata\n"), 0o600))

	_, err := run(t, "customers", "import", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company")
}
