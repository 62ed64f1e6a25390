package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/ports"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// exportPageSize tamaño de página al recorrer los clientes para el PDF.
const exportPageSize = 500

// CustomerUseCase casos de uso de clientes de una empresa. Todas las operaciones
// reciben la empresa dueña (la del usuario autenticado) y no ven clientes ajenos.
type CustomerUseCase struct {
	repo      repository.CustomerRepository
	companies repository.CompanyRepository
	tx        CustomerTxRunner
	report    ports.CustomerReportGenerator
	now       func() time.Time
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(
	repo repository.CustomerRepository,
	companies repository.CompanyRepository,
	tx CustomerTxRunner,
	report ports.CustomerReportGenerator,
) *CustomerUseCase {
	return &CustomerUseCase{repo: repo, companies: companies, tx: tx, report: report, now: time.Now}
}

// Create crea un cliente de ownerID. Sin direcciones en la petición se crean vacías.
func (uc *CustomerUseCase) Create(ctx context.Context, ownerID string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	customer := newCustomer(ownerID, in, uc.now())
	err := uc.tx.RunCustomer(ctx, func(repo repository.CustomerRepository) error {
		return repo.Create(ctx, customer)
	})
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

func newCustomer(ownerID string, in dto.CustomerRequest, now time.Time) *entity.Customer {
	c := &entity.Customer{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		InvoicingAddress: addressFromDTO(in.InvoicingAddress),
		DeliveryAddress:  addressFromDTO(in.DeliveryAddress),
		Created:          now,
		Modified:         now,
	}
	applyCustomer(c, in)
	return c
}

func applyCustomer(c *entity.Customer, in dto.CustomerRequest) {
	c.FirstName = strings.TrimSpace(in.FirstName)
	c.LastName = strings.TrimSpace(in.LastName)
	c.EmailAddress = strings.TrimSpace(in.EmailAddress)
	c.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	c.CompanyName = strings.TrimSpace(in.CompanyName)
	c.CompanyCode = strings.TrimSpace(in.CompanyCode)
}

// get devuelve el cliente solo si pertenece a ownerID; si no, domain.ErrNotFound.
func (uc *CustomerUseCase) get(ctx context.Context, ownerID, id string) (*entity.Customer, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || c.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

// GetByID obtiene un cliente de ownerID.
func (uc *CustomerUseCase) GetByID(ctx context.Context, ownerID, id string) (*dto.CustomerResponse, error) {
	c, err := uc.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// List lista los clientes de ownerID ordenados por empresa, apellido y nombre.
func (uc *CustomerUseCase) List(ctx context.Context, ownerID string, limit, offset int) (*dto.CustomerListResponse, error) {
	list, err := uc.repo.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *ToCustomerResponse(c))
	}
	return &dto.CustomerListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// Update reemplaza los datos del cliente y actualiza modified. Las direcciones conservan su ID.
func (uc *CustomerUseCase) Update(ctx context.Context, ownerID, id string, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	c, err := uc.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	applyCustomer(c, in)
	if in.InvoicingAddress != nil {
		c.InvoicingAddress = mergeAddress(c.InvoicingAddress, in.InvoicingAddress)
	}
	if in.DeliveryAddress != nil {
		c.DeliveryAddress = mergeAddress(c.DeliveryAddress, in.DeliveryAddress)
	}
	c.Modified = uc.now()
	err = uc.tx.RunCustomer(ctx, func(repo repository.CustomerRepository) error {
		return repo.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(c), nil
}

// Delete elimina un cliente de ownerID.
func (uc *CustomerUseCase) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uc.get(ctx, ownerID, id); err != nil {
		return err
	}
	return uc.tx.RunCustomer(ctx, func(repo repository.CustomerRepository) error {
		return repo.Delete(ctx, id)
	})
}

// ExportPDF genera el listado completo de clientes de ownerID en PDF.
func (uc *CustomerUseCase) ExportPDF(ctx context.Context, ownerID string) ([]byte, error) {
	company, err := uc.companies.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	var all []*entity.Customer
	for offset := 0; ; offset += exportPageSize {
		page, err := uc.repo.ListByOwner(ctx, ownerID, exportPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			break
		}
	}
	return uc.report.CustomersPDF(company, all)
}

// ToCustomerResponse convierte la entidad a DTO.
func ToCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	if c == nil {
		return nil
	}
	return &dto.CustomerResponse{
		ID:               c.ID,
		OwnerID:          c.OwnerID,
		DisplayName:      c.DisplayName(),
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		EmailAddress:     c.EmailAddress,
		PhoneNumber:      c.PhoneNumber,
		CompanyName:      c.CompanyName,
		CompanyCode:      c.CompanyCode,
		InvoicingAddress: addressToDTO(c.InvoicingAddress),
		DeliveryAddress:  addressToDTO(c.DeliveryAddress),
		Created:          c.Created,
		Modified:         c.Modified,
	}
}
