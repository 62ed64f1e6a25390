package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

var _ repository.AuthenticationDeviceRepository = (*AuthenticationDeviceRepo)(nil)

// AuthenticationDeviceRepo segundos factores (uno por usuario).
type AuthenticationDeviceRepo struct {
	q Querier
}

// NewAuthenticationDeviceRepository construye el adaptador.
func NewAuthenticationDeviceRepository(q Querier) *AuthenticationDeviceRepo {
	return &AuthenticationDeviceRepo{q: q}
}

// Create registra el dispositivo. Un usuario con dispositivo previo devuelve ErrDuplicate.
func (r *AuthenticationDeviceRepo) Create(ctx context.Context, d *entity.AuthenticationDevice) error {
	query := `
		INSERT INTO authentication_devices (id, user_id, type, name, secret, created)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, d.ID, d.UserID, d.Type, d.Name, d.Secret, d.Created)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert authentication device: %w", err)
	}
	return nil
}

// GetByUser devuelve el dispositivo del usuario o nil.
func (r *AuthenticationDeviceRepo) GetByUser(ctx context.Context, userID string) (*entity.AuthenticationDevice, error) {
	var d entity.AuthenticationDevice
	err := r.q.QueryRow(ctx,
		`SELECT id, user_id, type, name, secret, last_counter, created FROM authentication_devices WHERE user_id = $1`, userID,
	).Scan(&d.ID, &d.UserID, &d.Type, &d.Name, &d.Secret, &d.LastCounter, &d.Created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get authentication device: %w", err)
	}
	return &d, nil
}

// DeleteByUser elimina el dispositivo del usuario (si existe).
func (r *AuthenticationDeviceRepo) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM authentication_devices WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete authentication device: %w", err)
	}
	return nil
}

// AdvanceCounter avanza last_counter solo si counter es mayor; la condición en el UPDATE evita
// que dos logins concurrentes acepten el mismo código.
func (r *AuthenticationDeviceRepo) AdvanceCounter(ctx context.Context, id string, counter int64) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE authentication_devices SET last_counter = $2 WHERE id = $1 AND last_counter < $2`, id, counter)
	if err != nil {
		return false, fmt.Errorf("advance authentication device counter: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
