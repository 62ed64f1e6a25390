package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// Asegura que CompanyRepo implementa repository.CompanyRepository.
var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementación del puerto CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador de persistencia para empresas. Acepta pool o tx.
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

var companySelect = `
		SELECT c.id, c.name, c.code, c.host, c.sales_email_address, c.support_email_address,
			c.invoicing_email_address, c.phone_number, c.url,
			c.self_registration, c.email_password_reset, c.open_id_login, c.oauth_login,
			c.max_failed_login_count, c.password_validity_period_days,
			c.created, c.modified, ` + addressColumns("ia") + `, ` + addressColumns("da") + `
		FROM companies c
		LEFT JOIN postal_addresses ia ON ia.id = c.invoicing_address_id
		LEFT JOIN postal_addresses da ON da.id = c.delivery_address_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*entity.Company, error) {
	var c entity.Company
	var inv, del addressScan
	dest := []any{
		&c.ID, &c.Name, &c.Code, &c.Host, &c.SalesEmailAddress, &c.SupportEmailAddress,
		&c.InvoicingEmailAddress, &c.PhoneNumber, &c.URL,
		&c.SelfRegistration, &c.EmailPasswordReset, &c.OpenIDLogin, &c.OAuthLogin,
		&c.MaxFailedLoginCount, &c.PasswordValidityPeriodDays,
		&c.Created, &c.Modified,
	}
	dest = append(dest, inv.dest()...)
	dest = append(dest, del.dest()...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.InvoicingAddress = inv.address()
	c.DeliveryAddress = del.address()
	return &c, nil
}

// Create persiste una nueva empresa con sus direcciones.
func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if err := saveAddress(ctx, r.q, company.InvoicingAddress); err != nil {
		return err
	}
	if err := saveAddress(ctx, r.q, company.DeliveryAddress); err != nil {
		return err
	}
	query := `
		INSERT INTO companies (id, name, code, host, sales_email_address, support_email_address,
			invoicing_email_address, phone_number, url,
			self_registration, email_password_reset, open_id_login, oauth_login,
			max_failed_login_count, password_validity_period_days,
			invoicing_address_id, delivery_address_id, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.Code, company.Host,
		company.SalesEmailAddress, company.SupportEmailAddress, company.InvoicingEmailAddress,
		company.PhoneNumber, company.URL,
		company.SelfRegistration, company.EmailPasswordReset, company.OpenIDLogin, company.OAuthLogin,
		company.MaxFailedLoginCount, company.PasswordValidityPeriodDays,
		addressID(company.InvoicingAddress), addressID(company.DeliveryAddress),
		company.Created, company.Modified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID obtiene una empresa por ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, companySelect+` WHERE c.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// GetByHost obtiene la empresa que atiende un host HTTP.
func (r *CompanyRepo) GetByHost(ctx context.Context, host string) (*entity.Company, error) {
	c, err := scanCompany(r.q.QueryRow(ctx, companySelect+` WHERE c.host = $1`, host))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company by host: %w", err)
	}
	return c, nil
}

// Update actualiza datos, políticas y direcciones de la empresa.
func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	if err := saveAddress(ctx, r.q, company.InvoicingAddress); err != nil {
		return err
	}
	if err := saveAddress(ctx, r.q, company.DeliveryAddress); err != nil {
		return err
	}
	query := `
		UPDATE companies SET name = $2, code = $3, host = $4, sales_email_address = $5,
			support_email_address = $6, invoicing_email_address = $7, phone_number = $8, url = $9,
			self_registration = $10, email_password_reset = $11, open_id_login = $12, oauth_login = $13,
			max_failed_login_count = $14, password_validity_period_days = $15,
			invoicing_address_id = $16, delivery_address_id = $17, modified = $18
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		company.ID, company.Name, company.Code, company.Host,
		company.SalesEmailAddress, company.SupportEmailAddress, company.InvoicingEmailAddress,
		company.PhoneNumber, company.URL,
		company.SelfRegistration, company.EmailPasswordReset, company.OpenIDLogin, company.OAuthLogin,
		company.MaxFailedLoginCount, company.PasswordValidityPeriodDays,
		addressID(company.InvoicingAddress), addressID(company.DeliveryAddress),
		company.Modified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista empresas por nombre con paginación.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	rows, err := r.q.Query(ctx, companySelect+` ORDER BY c.name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()
	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Delete elimina la empresa (clientes y usuarios caen en cascada).
func (r *CompanyRepo) Delete(ctx context.Context, id string) error {
	var inv, del *string
	err := r.q.QueryRow(ctx,
		`DELETE FROM companies WHERE id = $1 RETURNING invoicing_address_id, delivery_address_id`, id,
	).Scan(&inv, &del)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete company: %w", err)
	}
	return deleteAddresses(ctx, r.q, inv, del)
}
