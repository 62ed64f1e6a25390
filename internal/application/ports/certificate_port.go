package ports

import "crypto/x509"

// IssuedCertificate certificado de cliente recién emitido, con su llave en PEM (PKCS#8).
type IssuedCertificate struct {
	Alias          string
	Certificate    *x509.Certificate
	CertificatePEM string
	PrivateKeyPEM  string
}

// CertificateStore key store del servidor direccionado por alias (huella SHA-256 para certificados de cliente).
type CertificateStore interface {
	// IssueClientCertificate genera un certificado autofirmado para commonName y lo guarda con su llave.
	IssueClientCertificate(commonName, entryPassword string) (*IssuedCertificate, error)
	SaveCertificate(alias string, cert *x509.Certificate) error
	RemoveCertificate(alias string) error
	// Certificate devuelve nil si el alias no existe.
	Certificate(alias string) (*x509.Certificate, error)
	ParseCertificatePEM(data []byte) (*x509.Certificate, error)
	Fingerprint(cert *x509.Certificate) string
}
