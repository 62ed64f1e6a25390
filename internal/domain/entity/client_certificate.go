package entity

import "time"

// ClientCertificate certificado X.509 de cliente asociado a un usuario.
// Alias es el SHA-256 (hex) del certificado DER y coincide con el alias en el key store.
type ClientCertificate struct {
	Alias          string
	UserID         string
	Subject        string
	CertificatePEM string
	NotBefore      time.Time
	NotAfter       time.Time
	Created        time.Time
}
