package keystore

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"

	"golang.org/x/crypto/pkcs12"
)

const (
	// DefaultKeySize tamaño de llave RSA por defecto.
	DefaultKeySize = 2048
	// validityYears vigencia de los certificados autofirmados.
	validityYears = 100
)

// Generator crea pares llave/certificado autofirmados.
type Generator struct {
	KeySize int
	// Now reloj inyectable (tests); nil = time.Now.
	Now func() time.Time
}

// SelfSigned genera una llave RSA y un certificado autofirmado para commonName.
// Vigencia: desde ahora-24h hasta cien años después. ipAddress vacío omite el SAN IP.
func (g Generator) SelfSigned(commonName, ipAddress string) (*x509.Certificate, *rsa.PrivateKey, error) {
	size := g.KeySize
	if size <= 0 {
		size = DefaultKeySize
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	key, err := rsa.GenerateKey(rand.Reader, size)
	if err != nil {
		return nil, nil, fmt.Errorf("generar llave RSA de %d bits: %w", size, err)
	}

	t := now()
	notBefore := t.Add(-24 * time.Hour)
	subject := pkix.Name{CommonName: commonName}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(t.UnixMilli()),
		Subject:               subject,
		Issuer:                subject,
		NotBefore:             notBefore,
		NotAfter:              notBefore.AddDate(validityYears, 0, 0),
		SignatureAlgorithm:    x509.SHA256WithRSA,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}
	if ipAddress != "" {
		ip := net.ParseIP(ipAddress)
		if ip == nil {
			return nil, nil, fmt.Errorf("dirección IP inválida para el certificado: %q", ipAddress)
		}
		tmpl.IPAddresses = []net.IP{ip}
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("firmar certificado para '%s': %w", commonName, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("leer certificado generado: %w", err)
	}
	return cert, key, nil
}

// EnsureServerCertificate crea el certificado del servidor si el alias no existe.
// Devuelve true si se generó uno nuevo. Con llamadas concurrentes solo una guarda su llave.
func (s *Store) EnsureServerCertificate(g Generator, commonName, ipAddress, alias, entryPassword string) (bool, error) {
	ok, err := s.HasCertificate(alias)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	cert, key, err := g.SelfSigned(commonName, ipAddress)
	if err != nil {
		return false, err
	}
	return s.addKeyEntryIfAbsent("ensure_server_certificate", alias, key, entryPassword, []*x509.Certificate{cert})
}

// GenerateSelfSigned genera un certificado autofirmado y lo guarda con alias = huella SHA-256.
func (s *Store) GenerateSelfSigned(g Generator, commonName, ipAddress, entryPassword string) (string, *x509.Certificate, crypto.PrivateKey, error) {
	cert, key, err := g.SelfSigned(commonName, ipAddress)
	if err != nil {
		return "", nil, nil, err
	}
	alias := Fingerprint(cert)
	if err := s.SetKeyEntry(alias, key, entryPassword, []*x509.Certificate{cert}); err != nil {
		return "", nil, nil, err
	}
	return alias, cert, key, nil
}

// ImportPKCS12 importa llave y certificado de un archivo PKCS#12 bajo alias.
// Si alias está vacío se usa la huella del certificado.
func (s *Store) ImportPKCS12(data []byte, p12Password, alias, entryPassword string) (string, error) {
	key, cert, err := DecodePKCS12(data, p12Password)
	if err != nil {
		return "", err
	}
	if alias == "" {
		alias = Fingerprint(cert)
	}
	if err := s.SetKeyEntry(alias, key, entryPassword, []*x509.Certificate{cert}); err != nil {
		return "", err
	}
	return alias, nil
}

// DecodePKCS12 lee llave y certificado de un PKCS#12 (una sola bolsa de llave).
func DecodePKCS12(data []byte, password string) (crypto.PrivateKey, *x509.Certificate, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("decodificar PKCS#12: %w", err)
	}
	return key, cert, nil
}
