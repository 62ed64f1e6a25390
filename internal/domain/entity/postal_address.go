package entity

// PostalAddress dirección postal (facturación o entrega) de una empresa o cliente.
type PostalAddress struct {
	ID               string
	AddressLineOne   string
	AddressLineTwo   string
	AddressLineThree string
	PostalCode       string
	City             string
	Country          string
}

// NewPostalAddress devuelve una dirección vacía con ID asignado por el llamador.
func NewPostalAddress(id string) *PostalAddress {
	return &PostalAddress{ID: id}
}
