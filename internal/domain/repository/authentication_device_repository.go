package repository

import (
	"context"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// AuthenticationDeviceRepository persistencia de segundos factores.
type AuthenticationDeviceRepository interface {
	Create(ctx context.Context, device *entity.AuthenticationDevice) error
	// GetByUser devuelve el dispositivo activo del usuario o nil.
	GetByUser(ctx context.Context, userID string) (*entity.AuthenticationDevice, error)
	DeleteByUser(ctx context.Context, userID string) error
	// AdvanceCounter registra el paso TOTP usado. Devuelve false si counter no supera al último aceptado.
	AdvanceCounter(ctx context.Context, id string, counter int64) (bool, error)
}
