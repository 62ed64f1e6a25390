package dto

import "time"

// IssueCertificateRequest emisión de un certificado de cliente autofirmado.
// Sin CommonName se usa el email del usuario.
type IssueCertificateRequest struct {
	CommonName string `json:"common_name" validate:"omitempty,max=64"`
	Password   string `json:"password" validate:"omitempty,min=4"`
}

// RegisterCertificateRequest registro de un certificado existente (PEM).
type RegisterCertificateRequest struct {
	CertificatePEM string `json:"certificate_pem" validate:"required"`
}

// CertificateResponse datos públicos de un certificado.
type CertificateResponse struct {
	Alias     string    `json:"alias"`
	UserID    string    `json:"user_id,omitempty"`
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer,omitempty"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	Created   time.Time `json:"created,omitempty"`
}

// IssuedCertificateResponse certificado emitido con su llave privada (solo se entrega una vez).
type IssuedCertificateResponse struct {
	CertificateResponse
	CertificatePEM string `json:"certificate_pem"`
	PrivateKeyPEM  string `json:"private_key_pem"`
}
