package repository

import (
	"context"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmailAndCompany(ctx context.Context, email, companyID string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	// RecordLoginFailure incrementa el contador y bloquea si alcanza maxFailed (>0). Devuelve el usuario actualizado.
	RecordLoginFailure(ctx context.Context, id string, maxFailed int) (*entity.User, error)
	ResetLoginFailures(ctx context.Context, id string) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error)
	Delete(ctx context.Context, id string) error
}
