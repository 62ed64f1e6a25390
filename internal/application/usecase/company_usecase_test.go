package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/usecase"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/testutil/memrepo"
)

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "acme.test", usecase.NormalizeHost("ACME.test:8443"))
	assert.Equal(t, "acme.test", usecase.NormalizeHost(" acme.test "))
	assert.Equal(t, "::1", usecase.NormalizeHost("[::1]:8080"))
}

func TestCompany_ForHostConRespaldo(t *testing.T) {
	store := memrepo.New()
	ctx := context.Background()
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "def", Name: "Default", Host: entity.DefaultCompanyHost}))
	require.NoError(t, store.Companies().Create(ctx, &entity.Company{ID: "acme", Name: "Acme", Host: "acme.test"}))
	uc := usecase.NewCompanyUseCase(store.Companies(), "")

	c, err := uc.ForHost(ctx, "Acme.Test:8443")
	require.NoError(t, err)
	assert.Equal(t, "acme", c.ID)

	c, err = uc.ForHost(ctx, "otro.test")
	require.NoError(t, err)
	assert.Equal(t, "def", c.ID)
}

func TestCompany_ForHostSinDefault(t *testing.T) {
	uc := usecase.NewCompanyUseCase(memrepo.New().Companies(), "*")
	_, err := uc.ForHost(context.Background(), "x.test")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompany_CRUD(t *testing.T) {
	store := memrepo.New()
	uc := usecase.NewCompanyUseCase(store.Companies(), "*")
	ctx := context.Background()

	created, err := uc.Create(ctx, dto.CreateCompanyRequest{
		Name:                "Acme",
		Host:                "Acme.Test",
		MaxFailedLoginCount: 5,
		InvoicingAddress:    &dto.PostalAddressDTO{City: "Bogotá"},
	})
	require.NoError(t, err)
	assert.Equal(t, "acme.test", created.Host)
	assert.Equal(t, "Bogotá", created.InvoicingAddress.City)
	require.NotNil(t, created.DeliveryAddress)

	_, err = uc.Create(ctx, dto.CreateCompanyRequest{Name: "Dup", Host: "acme.test"})
	require.ErrorIs(t, err, domain.ErrDuplicate)

	name := "Acme SAS"
	reg := true
	updated, err := uc.Update(ctx, created.ID, dto.UpdateCompanyRequest{Name: &name, SelfRegistration: &reg})
	require.NoError(t, err)
	assert.Equal(t, "Acme SAS", updated.Name)
	assert.True(t, updated.SelfRegistration)
	assert.Equal(t, 5, updated.MaxFailedLoginCount)
	assert.Equal(t, "Bogotá", updated.InvoicingAddress.City)

	list, err := uc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	require.NoError(t, uc.Delete(ctx, created.ID))
	_, err = uc.GetByID(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompany_NoSeEliminaLaPorDefecto(t *testing.T) {
	store := memrepo.New()
	uc := usecase.NewCompanyUseCase(store.Companies(), "*")
	created, err := uc.Create(context.Background(), dto.CreateCompanyRequest{Name: "Default", Host: "*"})
	require.NoError(t, err)
	assert.Equal(t, "*", created.Host)

	require.ErrorIs(t, uc.Delete(context.Background(), created.ID), domain.ErrConflict)
}
