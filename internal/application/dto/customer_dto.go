package dto

import "time"

// CustomerRequest alta o modificación de un cliente.
type CustomerRequest struct {
	FirstName        string            `json:"first_name" validate:"max=100"`
	LastName         string            `json:"last_name" validate:"required_without=CompanyName,max=100"`
	EmailAddress     string            `json:"email_address" validate:"omitempty,email"`
	PhoneNumber      string            `json:"phone_number" validate:"omitempty,max=40"`
	CompanyName      string            `json:"company_name" validate:"max=200"`
	CompanyCode      string            `json:"company_code" validate:"max=40"`
	InvoicingAddress *PostalAddressDTO `json:"invoicing_address"`
	DeliveryAddress  *PostalAddressDTO `json:"delivery_address"`
}

// CustomerResponse salida de un cliente.
type CustomerResponse struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	DisplayName      string           `json:"display_name"`
	FirstName        string           `json:"first_name"`
	LastName         string           `json:"last_name"`
	EmailAddress     string           `json:"email_address"`
	PhoneNumber      string           `json:"phone_number"`
	CompanyName      string           `json:"company_name"`
	CompanyCode      string           `json:"company_code"`
	InvoicingAddress PostalAddressDTO `json:"invoicing_address"`
	DeliveryAddress  PostalAddressDTO `json:"delivery_address"`
	Created          time.Time        `json:"created"`
	Modified         time.Time        `json:"modified"`
}

// CustomerListResponse lista paginada de clientes.
type CustomerListResponse struct {
	Items []CustomerResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// CustomerImportResult resultado de una importación CSV.
type CustomerImportResult struct {
	Imported int              `json:"imported"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

// ImportRowError error de una fila del CSV (Line es 1-based, incluye cabecera).
type ImportRowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}
