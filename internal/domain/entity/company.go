package entity

import "time"

// Company representa una organización/tenant del sistema. Se resuelve por Host en el login.
type Company struct {
	ID                    string
	Name                  string
	Code                  string
	Host                  string // host HTTP que identifica al tenant ("*" = por defecto)
	SalesEmailAddress     string
	SupportEmailAddress   string
	InvoicingEmailAddress string
	PhoneNumber           string
	URL                   string

	SelfRegistration   bool
	EmailPasswordReset bool
	OpenIDLogin        bool
	OAuthLogin         bool

	MaxFailedLoginCount        int // 0 = sin bloqueo
	PasswordValidityPeriodDays int // 0 = sin vencimiento

	InvoicingAddress *PostalAddress
	DeliveryAddress  *PostalAddress

	Created  time.Time
	Modified time.Time
}

// DefaultCompanyHost host comodín del tenant por defecto.
const DefaultCompanyHost = "*"
