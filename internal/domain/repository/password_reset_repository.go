package repository

import (
	"context"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// PasswordResetRepository tokens de restablecimiento de contraseña.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *entity.PasswordResetToken) error
	// Consume obtiene y elimina el token en una sola operación (uso único). nil si no existe.
	Consume(ctx context.Context, tokenHash string) (*entity.PasswordResetToken, error)
	DeleteByUser(ctx context.Context, userID string) error
}
