package usecase

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
)

// addressFromDTO devuelve una dirección con id nuevo. Sin datos queda vacía (nunca nil).
func addressFromDTO(in *dto.PostalAddressDTO) *entity.PostalAddress {
	a := entity.NewPostalAddress(uuid.New().String())
	applyAddress(a, in)
	return a
}

// applyAddress copia los campos del DTO conservando el ID de la dirección.
func applyAddress(a *entity.PostalAddress, in *dto.PostalAddressDTO) {
	if in == nil {
		return
	}
	a.AddressLineOne = strings.TrimSpace(in.AddressLineOne)
	a.AddressLineTwo = strings.TrimSpace(in.AddressLineTwo)
	a.AddressLineThree = strings.TrimSpace(in.AddressLineThree)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.City = strings.TrimSpace(in.City)
	a.Country = strings.TrimSpace(in.Country)
}

// mergeAddress actualiza la dirección existente o crea una si faltaba.
func mergeAddress(current *entity.PostalAddress, in *dto.PostalAddressDTO) *entity.PostalAddress {
	if current == nil {
		return addressFromDTO(in)
	}
	applyAddress(current, in)
	return current
}

func addressToDTO(a *entity.PostalAddress) dto.PostalAddressDTO {
	if a == nil {
		return dto.PostalAddressDTO{}
	}
	return dto.PostalAddressDTO{
		AddressLineOne:   a.AddressLineOne,
		AddressLineTwo:   a.AddressLineTwo,
		AddressLineThree: a.AddressLineThree,
		PostalCode:       a.PostalCode,
		City:             a.City,
		Country:          a.Country,
	}
}
