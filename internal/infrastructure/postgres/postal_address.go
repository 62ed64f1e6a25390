package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// addressColumns columnas de postal_addresses para un alias de tabla dado.
func addressColumns(alias string) string {
	return fmt.Sprintf("%[1]s.id, %[1]s.address_line_one, %[1]s.address_line_two, %[1]s.address_line_three, %[1]s.postal_code, %[1]s.city, %[1]s.country", alias)
}

// addressScan destino de escaneo de un LEFT JOIN a postal_addresses (todo puede ser NULL).
type addressScan struct {
	id, one, two, three, postalCode, city, country *string
}

func (a *addressScan) dest() []any {
	return []any{&a.id, &a.one, &a.two, &a.three, &a.postalCode, &a.city, &a.country}
}

func (a *addressScan) address() *entity.PostalAddress {
	if a.id == nil {
		return nil
	}
	return &entity.PostalAddress{
		ID:               *a.id,
		AddressLineOne:   derefString(a.one),
		AddressLineTwo:   derefString(a.two),
		AddressLineThree: derefString(a.three),
		PostalCode:       derefString(a.postalCode),
		City:             derefString(a.city),
		Country:          derefString(a.country),
	}
}

// saveAddress inserta o actualiza la dirección. nil no hace nada.
func saveAddress(ctx context.Context, q Querier, a *entity.PostalAddress) error {
	if a == nil {
		return nil
	}
	query := `
		INSERT INTO postal_addresses (id, address_line_one, address_line_two, address_line_three, postal_code, city, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			address_line_one = EXCLUDED.address_line_one,
			address_line_two = EXCLUDED.address_line_two,
			address_line_three = EXCLUDED.address_line_three,
			postal_code = EXCLUDED.postal_code,
			city = EXCLUDED.city,
			country = EXCLUDED.country`
	_, err := q.Exec(ctx, query, a.ID, a.AddressLineOne, a.AddressLineTwo, a.AddressLineThree, a.PostalCode, a.City, a.Country)
	if err != nil {
		return fmt.Errorf("save postal address: %w", err)
	}
	return nil
}

// deleteAddresses borra direcciones que ya no referencia nadie.
func deleteAddresses(ctx context.Context, q Querier, ids ...*string) error {
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, err := q.Exec(ctx, `DELETE FROM postal_addresses WHERE id = $1`, *id); err != nil {
			return fmt.Errorf("delete postal address: %w", err)
		}
	}
	return nil
}

func addressID(a *entity.PostalAddress) *string {
	if a == nil {
		return nil
	}
	return &a.ID
}
