package usecase

import (
	"context"

	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// CustomerTxRunner guarda un cliente y sus direcciones de forma atómica.
type CustomerTxRunner interface {
	RunCustomer(ctx context.Context, fn func(customerRepo repository.CustomerRepository) error) error
}

// CertificateCache invalida entradas del caché de usuarios por certificado.
type CertificateCache interface {
	Invalidate(fingerprint string)
	InvalidateUser(userID string)
}
