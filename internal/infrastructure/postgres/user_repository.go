package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, company_id, first_name, last_name, email_address, phone_number, password_hash,
		role, status, locked_out, failed_login_count, password_expiration_date, created, modified`

func scanUser(row rowScanner) (*entity.User, error) {
	var u entity.User
	err := row.Scan(
		&u.ID, &u.CompanyID, &u.FirstName, &u.LastName, &u.EmailAddress, &u.PhoneNumber, &u.PasswordHash,
		&u.Role, &u.Status, &u.LockedOut, &u.FailedLoginCount, &u.PasswordExpirationDate, &u.Created, &u.Modified,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.CompanyID, user.FirstName, user.LastName, user.EmailAddress, user.PhoneNumber,
		user.PasswordHash, user.Role, user.Status, user.LockedOut, user.FailedLoginCount,
		user.PasswordExpirationDate, user.Created, user.Modified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

// GetByEmailAndCompany obtiene un usuario por email (ya normalizado) y company.
func (r *UserRepo) GetByEmailAndCompany(ctx context.Context, email, companyID string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_address = $1 AND company_id = $2`
	u, err := scanUser(r.q.QueryRow(ctx, query, email, companyID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email and company: %w", err)
	}
	return u, nil
}

// Update actualiza un usuario.
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET first_name = $2, last_name = $3, email_address = $4, phone_number = $5,
			password_hash = $6, role = $7, status = $8, locked_out = $9, failed_login_count = $10,
			password_expiration_date = $11, modified = $12
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		user.ID, user.FirstName, user.LastName, user.EmailAddress, user.PhoneNumber,
		user.PasswordHash, user.Role, user.Status, user.LockedOut, user.FailedLoginCount,
		user.PasswordExpirationDate, user.Modified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// RecordLoginFailure incrementa el contador de fallos en una sola sentencia y bloquea
// la cuenta al llegar a maxFailed (0 = sin bloqueo).
func (r *UserRepo) RecordLoginFailure(ctx context.Context, id string, maxFailed int) (*entity.User, error) {
	query := `
		UPDATE users SET
			failed_login_count = failed_login_count + 1,
			locked_out = locked_out OR ($2 > 0 AND failed_login_count + 1 >= $2),
			modified = $3
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(r.q.QueryRow(ctx, query, id, maxFailed, time.Now().UTC()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("record login failure: %w", err)
	}
	return u, nil
}

// ResetLoginFailures pone el contador en cero tras un login correcto.
func (r *UserRepo) ResetLoginFailures(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `UPDATE users SET failed_login_count = 0 WHERE id = $1 AND failed_login_count <> 0`, id)
	if err != nil {
		return fmt.Errorf("reset login failures: %w", err)
	}
	return nil
}

// ListByCompany lista usuarios por company con paginación.
func (r *UserRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = $1
		ORDER BY last_name, first_name, email_address LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var list []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Delete elimina un usuario por ID.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
