package gravatar_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/ilves-api/pkg/gravatar"
)

func TestURL_NormalizaEmail(t *testing.T) {
	a := gravatar.URL("  John.Doe@Example.COM ")
	b := gravatar.URL("john.doe@example.com")
	assert.Equal(t, a, b, "mayúsculas y espacios no deben cambiar el hash")
	assert.True(t, strings.HasPrefix(a, gravatar.BaseURL))
	assert.True(t, strings.HasSuffix(a, ".jpg?s=32&d=mm&r=g"))
}

func TestURL_HashConocido(t *testing.T) {
	// md5("test@example.com")
	assert.Equal(t,
		"http://www.gravatar.com/avatar/55502f40dc8b7c769880b10874abc9d0.jpg?s=32&d=mm&r=g",
		gravatar.URL("test@example.com"))
}
