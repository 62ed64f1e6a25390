package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ilves-api/internal/application/auth"
	"github.com/jhoicas/ilves-api/internal/application/usecase"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// Ensure TxRunner implements usecase.CustomerTxRunner and auth.TxRunner.
var _ usecase.CustomerTxRunner = (*TxRunner)(nil)
var _ auth.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// run inicia una transacción, ejecuta fn y hace Commit o Rollback.
func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunCustomer guarda un cliente y sus dos direcciones postales en una sola transacción.
func (r *TxRunner) RunCustomer(ctx context.Context, fn func(customerRepo repository.CustomerRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewCustomerRepository(tx))
	})
}

// RunCredentials agrupa usuario, tokens de restablecimiento y dispositivos (cambio de contraseña, 2FA).
func (r *TxRunner) RunCredentials(ctx context.Context, fn func(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	deviceRepo repository.AuthenticationDeviceRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewUserRepository(tx), NewPasswordResetRepository(tx), NewAuthenticationDeviceRepository(tx))
	})
}
