package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/pkg/jwt"
)

const secret = "secreto-de-prueba"

func TestGenerateYParse(t *testing.T) {
	tok, err := jwt.Generate(secret, "u1", "c1", "administrator", jwt.MethodTOTP, "ilves", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "c1", claims.CompanyID)
	assert.Equal(t, "administrator", claims.Role)
	assert.Equal(t, jwt.MethodTOTP, claims.AuthMethod)
	assert.Equal(t, "ilves", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	tok, err := jwt.Generate(secret, "u1", "c1", "user", jwt.MethodPassword, "ilves", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro-secreto", tok)
	require.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := jwt.Generate(secret, "u1", "c1", "user", jwt.MethodPassword, "ilves", -1)
	require.NoError(t, err)

	_, err = jwt.Parse(secret, tok)
	require.ErrorIs(t, err, gojwt.ErrTokenExpired)
}

func TestParse_MetodoNoHMAC(t *testing.T) {
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, jwt.Claims{UserID: "u1"}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = jwt.Parse(secret, tok)
	require.Error(t, err)
}

func TestSecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "u1", "c1", "user", jwt.MethodPassword, "ilves", 5)
	require.Error(t, err)

	_, err = jwt.Parse("", "x.y.z")
	require.Error(t, err)
}
