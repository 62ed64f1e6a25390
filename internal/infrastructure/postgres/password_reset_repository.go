package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

var _ repository.PasswordResetRepository = (*PasswordResetRepo)(nil)

// PasswordResetRepo tokens de restablecimiento (solo hashes).
type PasswordResetRepo struct {
	q Querier
}

// NewPasswordResetRepository construye el adaptador.
func NewPasswordResetRepository(q Querier) *PasswordResetRepo {
	return &PasswordResetRepo{q: q}
}

// Create guarda el hash del token.
func (r *PasswordResetRepo) Create(ctx context.Context, t *entity.PasswordResetToken) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO password_reset_tokens (token_hash, user_id, expires, created) VALUES ($1, $2, $3, $4)`,
		t.TokenHash, t.UserID, t.Expires, t.Created,
	)
	if err != nil {
		return fmt.Errorf("insert password reset token: %w", err)
	}
	return nil
}

// Consume borra y devuelve el token en una sentencia; dos consumos concurrentes no pueden ganar ambos.
func (r *PasswordResetRepo) Consume(ctx context.Context, tokenHash string) (*entity.PasswordResetToken, error) {
	var t entity.PasswordResetToken
	err := r.q.QueryRow(ctx,
		`DELETE FROM password_reset_tokens WHERE token_hash = $1 RETURNING token_hash, user_id, expires, created`,
		tokenHash,
	).Scan(&t.TokenHash, &t.UserID, &t.Expires, &t.Created)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume password reset token: %w", err)
	}
	return &t, nil
}

// DeleteByUser invalida los tokens pendientes del usuario.
func (r *PasswordResetRepo) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete password reset tokens: %w", err)
	}
	return nil
}
