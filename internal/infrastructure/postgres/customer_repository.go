package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
// Para guardar cliente y direcciones de forma atómica usar TxRunner.RunCustomer.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

var customerSelect = `
		SELECT c.id, c.owner_id, c.first_name, c.last_name, c.email_address, c.phone_number,
			c.company_name, c.company_code, c.created, c.modified,
			` + addressColumns("ia") + `, ` + addressColumns("da") + `
		FROM customers c
		LEFT JOIN postal_addresses ia ON ia.id = c.invoicing_address_id
		LEFT JOIN postal_addresses da ON da.id = c.delivery_address_id`

func scanCustomer(row rowScanner) (*entity.Customer, error) {
	var c entity.Customer
	var inv, del addressScan
	dest := []any{
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.EmailAddress, &c.PhoneNumber,
		&c.CompanyName, &c.CompanyCode, &c.Created, &c.Modified,
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

// Create persiste un nuevo cliente junto con sus direcciones.
func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	if err := saveAddress(ctx, r.q, customer.InvoicingAddress); err != nil {
		return err
	}
	if err := saveAddress(ctx, r.q, customer.DeliveryAddress); err != nil {
		return err
	}
	query := `
		INSERT INTO customers (id, owner_id, first_name, last_name, email_address, phone_number,
			company_name, company_code, invoicing_address_id, delivery_address_id, created, modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		customer.ID, customer.OwnerID, customer.FirstName, customer.LastName,
		customer.EmailAddress, customer.PhoneNumber, customer.CompanyName, customer.CompanyCode,
		addressID(customer.InvoicingAddress), addressID(customer.DeliveryAddress),
		customer.Created, customer.Modified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrInvalidInput
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, customerSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// ListByOwner lista los clientes de la empresa ordenados por empresa, apellido y nombre.
func (r *CustomerRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Customer, error) {
	query := customerSelect + `
		WHERE c.owner_id = $1
		ORDER BY c.company_name, c.last_name, c.first_name, c.id
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// CountByOwner total de clientes de la empresa.
func (r *CustomerRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// Update actualiza un cliente y sus direcciones.
func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	if err := saveAddress(ctx, r.q, customer.InvoicingAddress); err != nil {
		return err
	}
	if err := saveAddress(ctx, r.q, customer.DeliveryAddress); err != nil {
		return err
	}
	query := `
		UPDATE customers SET first_name = $2, last_name = $3, email_address = $4, phone_number = $5,
			company_name = $6, company_code = $7, invoicing_address_id = $8, delivery_address_id = $9,
			modified = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		customer.ID, customer.FirstName, customer.LastName, customer.EmailAddress, customer.PhoneNumber,
		customer.CompanyName, customer.CompanyCode,
		addressID(customer.InvoicingAddress), addressID(customer.DeliveryAddress),
		customer.Modified,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un cliente por ID junto con sus direcciones.
func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	var inv, del *string
	err := r.q.QueryRow(ctx,
		`DELETE FROM customers WHERE id = $1 RETURNING invoicing_address_id, delivery_address_id`, id,
	).Scan(&inv, &del)
	if err != nil {
		if isNoRows(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	return deleteAddresses(ctx, r.q, inv, del)
}
