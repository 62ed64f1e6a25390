package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

var _ repository.ClientCertificateRepository = (*ClientCertificateRepo)(nil)

// ClientCertificateRepo certificados de cliente registrados por usuario.
type ClientCertificateRepo struct {
	q Querier
}

// NewClientCertificateRepository construye el adaptador.
func NewClientCertificateRepository(q Querier) *ClientCertificateRepo {
	return &ClientCertificateRepo{q: q}
}

const clientCertificateColumns = `alias, user_id, subject, certificate_pem, not_before, not_after, created`

func scanClientCertificate(row rowScanner) (*entity.ClientCertificate, error) {
	var c entity.ClientCertificate
	if err := row.Scan(&c.Alias, &c.UserID, &c.Subject, &c.CertificatePEM, &c.NotBefore, &c.NotAfter, &c.Created); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create registra el certificado. Un alias repetido es ErrDuplicate.
func (r *ClientCertificateRepo) Create(ctx context.Context, cert *entity.ClientCertificate) error {
	query := `INSERT INTO client_certificates (` + clientCertificateColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		cert.Alias, cert.UserID, cert.Subject, cert.CertificatePEM, cert.NotBefore, cert.NotAfter, cert.Created,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("insert client certificate: %w", err)
	}
	return nil
}

// GetByAlias obtiene el certificado por alias (huella).
func (r *ClientCertificateRepo) GetByAlias(ctx context.Context, alias string) (*entity.ClientCertificate, error) {
	c, err := scanClientCertificate(r.q.QueryRow(ctx,
		`SELECT `+clientCertificateColumns+` FROM client_certificates WHERE alias = $1`, alias))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client certificate: %w", err)
	}
	return c, nil
}

// ListByUser certificados del usuario, más recientes primero.
func (r *ClientCertificateRepo) ListByUser(ctx context.Context, userID string) ([]*entity.ClientCertificate, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+clientCertificateColumns+` FROM client_certificates WHERE user_id = $1 ORDER BY created DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list client certificates: %w", err)
	}
	defer rows.Close()
	var list []*entity.ClientCertificate
	for rows.Next() {
		c, err := scanClientCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client certificate: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Delete elimina el registro del certificado.
func (r *ClientCertificateRepo) Delete(ctx context.Context, alias string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM client_certificates WHERE alias = $1`, alias)
	if err != nil {
		return fmt.Errorf("delete client certificate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindUserByAlias resuelve el usuario dueño de un certificado.
func (r *ClientCertificateRepo) FindUserByAlias(ctx context.Context, alias string) (*entity.User, error) {
	query := `
		SELECT u.id, u.company_id, u.first_name, u.last_name, u.email_address, u.phone_number, u.password_hash,
			u.role, u.status, u.locked_out, u.failed_login_count, u.password_expiration_date, u.created, u.modified
		FROM client_certificates cc
		JOIN users u ON u.id = cc.user_id
		WHERE cc.alias = $1`
	u, err := scanUser(r.q.QueryRow(ctx, query, alias))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by certificate: %w", err)
	}
	return u, nil
}
