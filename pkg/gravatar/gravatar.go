// Package gravatar construye URLs de avatar a partir del email.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// BaseURL servicio de avatares.
const BaseURL = "http://www.gravatar.com/avatar/"

// URL devuelve la URL de la imagen de 32px del email (md5 del email normalizado).
func URL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return BaseURL + hex.EncodeToString(sum[:]) + ".jpg?s=32&d=mm&r=g"
}
