package repository

import (
	"context"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
// Las direcciones de facturación y entrega se guardan junto con el cliente.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	// ListByOwner ordena por company_name, last_name, first_name (ascendente).
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Customer, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id string) error
}
