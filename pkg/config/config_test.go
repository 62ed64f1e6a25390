package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 8443, cfg.HTTP.TLSPort)
	assert.Equal(t, 30*time.Second, cfg.HTTP.IdleTimeout)
	assert.True(t, cfg.HTTP.RequestClientAuth)
	assert.False(t, cfg.HTTP.RequireClientAuth)
	assert.Equal(t, "server", cfg.KeyStore.ServerCertificateAlias)
	assert.Equal(t, 2048, cfg.KeyStore.KeySize)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ClientCertificateTTL)
	assert.Equal(t, "*", cfg.Site.DefaultCompanyHost)
	assert.Equal(t, "0.0.0.0:8443", cfg.HTTP.TLSAddr())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("HTTP_PORT", "9000")
	v.Set("HTTPS_PORT", "-1")
	v.Set("HTTP_IDLE_TIMEOUT", "45")
	v.Set("CLIENT_CERTIFICATE_CACHE_TTL", "90s")
	v.Set("HTTPS_REQUEST_CLIENT_AUTH", "false")
	v.Set("HTTPS_REQUIRE_CLIENT_AUTH", "true")
	v.Set("SERVER_CERTIFICATE_SELF_SIGN_IP_ADDRESS", "")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, -1, cfg.HTTP.TLSPort)
	assert.Equal(t, 45*time.Second, cfg.HTTP.IdleTimeout)
	assert.Equal(t, 90*time.Second, cfg.Cache.ClientCertificateTTL)
	// Exigir certificado implica pedirlo.
	assert.True(t, cfg.HTTP.RequestClientAuth)
	assert.Empty(t, cfg.KeyStore.SelfSignIPAddress)
}

func TestFromViper_ValoresInvalidosUsanDefault(t *testing.T) {
	v := viper.New()
	v.Set("HTTP_PORT", "no-es-numero")
	v.Set("HTTP_READ_TIMEOUT", "x")
	v.Set("HTTP_REDIRECT_TO_TLS", "quizas")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.False(t, cfg.HTTP.RedirectToTLS)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	db := DBConfig{Host: "db", Port: 5432, User: "ilves", Password: "p@ss:w", DBName: "site", SSLMode: "disable"}
	assert.Equal(t, "postgres://ilves:p%40ss%3Aw@db:5432/site?sslmode=disable", db.ConnectionString())

	db.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", db.ConnectionString())
}

func TestLoadDB_CategoriaConRespaldo(t *testing.T) {
	v := viper.New()
	v.Set("DB_HOST", "principal")
	v.Set("DB_NAME", "site")
	v.Set("DB_AUDIT_LOG_NAME", "audit")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	site := cfg.LoadDB("site")
	assert.Equal(t, site, cfg.LoadDB(""))
	assert.Equal(t, cfg.DB.DBName, site.DBName)
	assert.Equal(t, "ilves/site", site.ApplicationName)
	assert.Equal(t, 25, site.MaxConns)

	audit := cfg.LoadDB("audit-log")
	assert.Equal(t, "audit", audit.DBName)
	assert.Equal(t, "principal", audit.Host)
	assert.Equal(t, "ilves/audit-log", audit.ApplicationName)
	assert.Equal(t, 2, audit.MinConns)
}
