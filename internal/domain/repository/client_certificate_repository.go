package repository

import (
	"context"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// ClientCertificateRepository persistencia de certificados de cliente por usuario.
type ClientCertificateRepository interface {
	Create(ctx context.Context, cert *entity.ClientCertificate) error
	GetByAlias(ctx context.Context, alias string) (*entity.ClientCertificate, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.ClientCertificate, error)
	Delete(ctx context.Context, alias string) error
	// FindUserByAlias devuelve el usuario dueño del certificado o nil si no existe.
	FindUserByAlias(ctx context.Context, alias string) (*entity.User, error)
}
