package validate_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/pkg/validate"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestStruct_Valido(t *testing.T) {
	require.NoError(t, validate.Struct(loginForm{Email: "ana@acme.test", Password: "12345678"}))
}

func TestMessage_UsaNombreJSON(t *testing.T) {
	err := validate.Struct(loginForm{Email: "no-es-email", Password: "corta"})
	require.Error(t, err)
	msg := validate.Message(err)
	assert.Contains(t, msg, "email: email")
	assert.Contains(t, msg, "password: min=8")
}

func TestMessage_ErrorComun(t *testing.T) {
	assert.Equal(t, "boom", validate.Message(errors.New("boom")))
}
