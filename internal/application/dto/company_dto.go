package dto

import "time"

// PostalAddressDTO dirección postal en requests y responses.
type PostalAddressDTO struct {
	AddressLineOne   string `json:"address_line_one" validate:"max=200"`
	AddressLineTwo   string `json:"address_line_two" validate:"max=200"`
	AddressLineThree string `json:"address_line_three" validate:"max=200"`
	PostalCode       string `json:"postal_code" validate:"max=20"`
	City             string `json:"city" validate:"max=100"`
	Country          string `json:"country" validate:"max=100"`
}

// CreateCompanyRequest entrada para crear una empresa.
type CreateCompanyRequest struct {
	Name                       string            `json:"name" validate:"required,min=1,max=200"`
	Code                       string            `json:"code" validate:"omitempty,max=40"`
	Host                       string            `json:"host" validate:"required,max=253"`
	SalesEmailAddress          string            `json:"sales_email_address" validate:"omitempty,email"`
	SupportEmailAddress        string            `json:"support_email_address" validate:"omitempty,email"`
	InvoicingEmailAddress      string            `json:"invoicing_email_address" validate:"omitempty,email"`
	PhoneNumber                string            `json:"phone_number" validate:"omitempty,max=40"`
	URL                        string            `json:"url" validate:"omitempty,url"`
	SelfRegistration           bool              `json:"self_registration"`
	EmailPasswordReset         bool              `json:"email_password_reset"`
	OpenIDLogin                bool              `json:"open_id_login"`
	OAuthLogin                 bool              `json:"oauth_login"`
	MaxFailedLoginCount        int               `json:"max_failed_login_count" validate:"min=0,max=100"`
	PasswordValidityPeriodDays int               `json:"password_validity_period_days" validate:"min=0,max=3650"`
	InvoicingAddress           *PostalAddressDTO `json:"invoicing_address"`
	DeliveryAddress            *PostalAddressDTO `json:"delivery_address"`
}

// UpdateCompanyRequest entrada para actualizar una empresa (campos opcionales).
type UpdateCompanyRequest struct {
	Name                       *string           `json:"name" validate:"omitempty,min=1,max=200"`
	Code                       *string           `json:"code" validate:"omitempty,max=40"`
	Host                       *string           `json:"host" validate:"omitempty,min=1,max=253"`
	SalesEmailAddress          *string           `json:"sales_email_address" validate:"omitempty,email"`
	SupportEmailAddress        *string           `json:"support_email_address" validate:"omitempty,email"`
	InvoicingEmailAddress      *string           `json:"invoicing_email_address" validate:"omitempty,email"`
	PhoneNumber                *string           `json:"phone_number" validate:"omitempty,max=40"`
	URL                        *string           `json:"url" validate:"omitempty,url"`
	SelfRegistration           *bool             `json:"self_registration"`
	EmailPasswordReset         *bool             `json:"email_password_reset"`
	OpenIDLogin                *bool             `json:"open_id_login"`
	OAuthLogin                 *bool             `json:"oauth_login"`
	MaxFailedLoginCount        *int              `json:"max_failed_login_count" validate:"omitempty,min=0,max=100"`
	PasswordValidityPeriodDays *int              `json:"password_validity_period_days" validate:"omitempty,min=0,max=3650"`
	InvoicingAddress           *PostalAddressDTO `json:"invoicing_address"`
	DeliveryAddress            *PostalAddressDTO `json:"delivery_address"`
}

// CompanyResponse salida de una empresa.
type CompanyResponse struct {
	ID                         string            `json:"id"`
	Name                       string            `json:"name"`
	Code                       string            `json:"code"`
	Host                       string            `json:"host"`
	SalesEmailAddress          string            `json:"sales_email_address"`
	SupportEmailAddress        string            `json:"support_email_address"`
	InvoicingEmailAddress      string            `json:"invoicing_email_address"`
	PhoneNumber                string            `json:"phone_number"`
	URL                        string            `json:"url"`
	SelfRegistration           bool              `json:"self_registration"`
	EmailPasswordReset         bool              `json:"email_password_reset"`
	OpenIDLogin                bool              `json:"open_id_login"`
	OAuthLogin                 bool              `json:"oauth_login"`
	MaxFailedLoginCount        int               `json:"max_failed_login_count"`
	PasswordValidityPeriodDays int               `json:"password_validity_period_days"`
	InvoicingAddress           *PostalAddressDTO `json:"invoicing_address,omitempty"`
	DeliveryAddress            *PostalAddressDTO `json:"delivery_address,omitempty"`
	Created                    time.Time         `json:"created"`
	Modified                   time.Time         `json:"modified"`
}

// CompanyListResponse lista paginada de empresas.
type CompanyListResponse struct {
	Items []CompanyResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
