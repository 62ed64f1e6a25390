package keystore

import (
	"crypto/x509"

	"github.com/jhoicas/ilves-api/internal/application/ports"
)

var _ ports.CertificateStore = (*Issuer)(nil)

// Issuer adapta Store al puerto de certificados de la aplicación.
type Issuer struct {
	*Store
	Generator Generator
}

// NewIssuer construye el adaptador sobre store.
func NewIssuer(store *Store, g Generator) *Issuer {
	return &Issuer{Store: store, Generator: g}
}

// IssueClientCertificate genera y guarda un certificado autofirmado sin SAN IP.
func (i *Issuer) IssueClientCertificate(commonName, entryPassword string) (*ports.IssuedCertificate, error) {
	alias, cert, key, err := i.GenerateSelfSigned(i.Generator, commonName, "", entryPassword)
	if err != nil {
		return nil, err
	}
	keyPEM, err := EncodePrivateKeyPEM(key)
	if err != nil {
		return nil, err
	}
	return &ports.IssuedCertificate{
		Alias:          alias,
		Certificate:    cert,
		CertificatePEM: EncodeCertificatePEM(cert),
		PrivateKeyPEM:  keyPEM,
	}, nil
}

// ParseCertificatePEM ver función ParseCertificatePEM.
func (i *Issuer) ParseCertificatePEM(data []byte) (*x509.Certificate, error) {
	return ParseCertificatePEM(data)
}

// Fingerprint ver función Fingerprint.
func (i *Issuer) Fingerprint(cert *x509.Certificate) string {
	return Fingerprint(cert)
}
