package usecase

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// CompanyUseCase aplica reglas de negocio para empresas (tenants).
type CompanyUseCase struct {
	repo        repository.CompanyRepository
	defaultHost string
}

// NewCompanyUseCase construye el caso de uso. defaultHost es el host de respaldo
// cuando ninguna empresa coincide con el de la petición ("*" si está vacío).
func NewCompanyUseCase(repo repository.CompanyRepository, defaultHost string) *CompanyUseCase {
	if defaultHost == "" {
		defaultHost = entity.DefaultCompanyHost
	}
	return &CompanyUseCase{repo: repo, defaultHost: defaultHost}
}

// NormalizeHost quita el puerto y pasa a minúsculas.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.Trim(host, "[]"))
}

// ForHost resuelve la empresa del host de la petición; si no existe usa la empresa por defecto.
func (uc *CompanyUseCase) ForHost(ctx context.Context, host string) (*entity.Company, error) {
	company, err := uc.repo.GetByHost(ctx, NormalizeHost(host))
	if err != nil {
		return nil, err
	}
	if company != nil {
		return company, nil
	}
	company, err = uc.repo.GetByHost(ctx, uc.defaultHost)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return company, nil
}

// IsDefault indica si la empresa es la del sitio (host por defecto), la única que administra empresas.
func (uc *CompanyUseCase) IsDefault(company *entity.Company) bool {
	return company != nil && company.Host == uc.defaultHost
}

// Create crea una nueva empresa. Devuelve domain.ErrDuplicate si el host ya está en uso.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	host := in.Host
	if host != entity.DefaultCompanyHost {
		host = NormalizeHost(host)
	}
	now := time.Now()
	company := &entity.Company{
		ID:                         uuid.New().String(),
		Name:                       strings.TrimSpace(in.Name),
		Code:                       strings.TrimSpace(in.Code),
		Host:                       host,
		SalesEmailAddress:          in.SalesEmailAddress,
		SupportEmailAddress:        in.SupportEmailAddress,
		InvoicingEmailAddress:      in.InvoicingEmailAddress,
		PhoneNumber:                in.PhoneNumber,
		URL:                        in.URL,
		SelfRegistration:           in.SelfRegistration,
		EmailPasswordReset:         in.EmailPasswordReset,
		OpenIDLogin:                in.OpenIDLogin,
		OAuthLogin:                 in.OAuthLogin,
		MaxFailedLoginCount:        in.MaxFailedLoginCount,
		PasswordValidityPeriodDays: in.PasswordValidityPeriodDays,
		InvoicingAddress:           addressFromDTO(in.InvoicingAddress),
		DeliveryAddress:            addressFromDTO(in.DeliveryAddress),
		Created:                    now,
		Modified:                   now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return ToCompanyResponse(company), nil
}

// GetByID obtiene una empresa por ID.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return ToCompanyResponse(company), nil
}

// List lista empresas con paginación.
func (uc *CompanyUseCase) List(ctx context.Context, limit, offset int) (*dto.CompanyListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		items = append(items, *ToCompanyResponse(c))
	}
	return &dto.CompanyListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Update aplica los campos presentes en la petición.
func (uc *CompanyUseCase) Update(ctx context.Context, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		c.Code = strings.TrimSpace(*in.Code)
	}
	if in.Host != nil {
		c.Host = *in.Host
		if c.Host != entity.DefaultCompanyHost {
			c.Host = NormalizeHost(c.Host)
		}
	}
	setString(&c.SalesEmailAddress, in.SalesEmailAddress)
	setString(&c.SupportEmailAddress, in.SupportEmailAddress)
	setString(&c.InvoicingEmailAddress, in.InvoicingEmailAddress)
	setString(&c.PhoneNumber, in.PhoneNumber)
	setString(&c.URL, in.URL)
	setBool(&c.SelfRegistration, in.SelfRegistration)
	setBool(&c.EmailPasswordReset, in.EmailPasswordReset)
	setBool(&c.OpenIDLogin, in.OpenIDLogin)
	setBool(&c.OAuthLogin, in.OAuthLogin)
	if in.MaxFailedLoginCount != nil {
		c.MaxFailedLoginCount = *in.MaxFailedLoginCount
	}
	if in.PasswordValidityPeriodDays != nil {
		c.PasswordValidityPeriodDays = *in.PasswordValidityPeriodDays
	}
	if in.InvoicingAddress != nil {
		c.InvoicingAddress = mergeAddress(c.InvoicingAddress, in.InvoicingAddress)
	}
	if in.DeliveryAddress != nil {
		c.DeliveryAddress = mergeAddress(c.DeliveryAddress, in.DeliveryAddress)
	}
	c.Modified = time.Now()
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return ToCompanyResponse(c), nil
}

// Delete elimina la empresa. La empresa por defecto no se puede eliminar.
func (uc *CompanyUseCase) Delete(ctx context.Context, id string) error {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.ErrNotFound
	}
	if uc.IsDefault(c) {
		return domain.ErrConflict
	}
	return uc.repo.Delete(ctx, id)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ToCompanyResponse convierte la entidad a DTO.
func ToCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	inv := addressToDTO(c.InvoicingAddress)
	del := addressToDTO(c.DeliveryAddress)
	return &dto.CompanyResponse{
		ID:                         c.ID,
		Name:                       c.Name,
		Code:                       c.Code,
		Host:                       c.Host,
		SalesEmailAddress:          c.SalesEmailAddress,
		SupportEmailAddress:        c.SupportEmailAddress,
		InvoicingEmailAddress:      c.InvoicingEmailAddress,
		PhoneNumber:                c.PhoneNumber,
		URL:                        c.URL,
		SelfRegistration:           c.SelfRegistration,
		EmailPasswordReset:         c.EmailPasswordReset,
		OpenIDLogin:                c.OpenIDLogin,
		OAuthLogin:                 c.OAuthLogin,
		MaxFailedLoginCount:        c.MaxFailedLoginCount,
		PasswordValidityPeriodDays: c.PasswordValidityPeriodDays,
		InvoicingAddress:           &inv,
		DeliveryAddress:            &del,
		Created:                    c.Created,
		Modified:                   c.Modified,
	}
}
