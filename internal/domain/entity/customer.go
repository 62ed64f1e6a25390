package entity

import "time"

// Customer representa un cliente de una empresa (Owner).
type Customer struct {
	ID           string
	OwnerID      string // Company propietaria
	FirstName    string
	LastName     string
	EmailAddress string
	PhoneNumber  string
	CompanyName  string
	CompanyCode  string

	InvoicingAddress *PostalAddress
	DeliveryAddress  *PostalAddress

	Created  time.Time
	Modified time.Time
}

// DisplayName nombre para listados: empresa si existe, si no "Apellido, Nombre".
func (c *Customer) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	if c.FirstName == "" {
		return c.LastName
	}
	return c.LastName + ", " + c.FirstName
}
