// Package memrepo implementa los puertos de repositorio en memoria para tests de casos de uso y handlers.
package memrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// Store estado compartido por todos los repos (permite "joins" como FindUserByAlias).
type Store struct {
	mu           sync.Mutex
	companies    map[string]*entity.Company
	customers    map[string]*entity.Customer
	users        map[string]*entity.User
	certificates map[string]*entity.ClientCertificate
	devices      map[string]*entity.AuthenticationDevice
	resets       map[string]*entity.PasswordResetToken
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		companies:    map[string]*entity.Company{},
		customers:    map[string]*entity.Customer{},
		users:        map[string]*entity.User{},
		certificates: map[string]*entity.ClientCertificate{},
		devices:      map[string]*entity.AuthenticationDevice{},
		resets:       map[string]*entity.PasswordResetToken{},
	}
}

// Companies repo de empresas.
func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{s} }

// Customers repo de clientes.
func (s *Store) Customers() *CustomerRepo { return &CustomerRepo{s} }

// Users repo de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s} }

// Certificates repo de certificados de cliente.
func (s *Store) Certificates() *CertificateRepo { return &CertificateRepo{s} }

// Devices repo de dispositivos de autenticación.
func (s *Store) Devices() *DeviceRepo { return &DeviceRepo{s} }

// Resets repo de tokens de restablecimiento.
func (s *Store) Resets() *ResetRepo { return &ResetRepo{s} }

// RunCustomer ejecuta fn sin transacción real.
func (s *Store) RunCustomer(_ context.Context, fn func(repository.CustomerRepository) error) error {
	return fn(s.Customers())
}

// RunCredentials ejecuta fn sin transacción real.
func (s *Store) RunCredentials(_ context.Context, fn func(
	repository.UserRepository,
	repository.PasswordResetRepository,
	repository.AuthenticationDeviceRepository,
) error) error {
	return fn(s.Users(), s.Resets(), s.Devices())
}

func clone[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// ─── Companies ───────────────────────────────────────────────────────────────

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo empresas en memoria.
type CompanyRepo struct{ s *Store }

func cloneCompany(c *entity.Company) *entity.Company {
	out := clone(c)
	out.InvoicingAddress = clone(c.InvoicingAddress)
	out.DeliveryAddress = clone(c.DeliveryAddress)
	return out
}

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.companies {
		if other.Host == c.Host {
			return domain.ErrDuplicate
		}
	}
	r.s.companies[c.ID] = cloneCompany(c)
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.companies[id]; ok {
		return cloneCompany(c), nil
	}
	return nil, nil
}

func (r *CompanyRepo) GetByHost(_ context.Context, host string) (*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.companies {
		if c.Host == host {
			return cloneCompany(c), nil
		}
	}
	return nil, nil
}

func (r *CompanyRepo) Update(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[c.ID]; !ok {
		return domain.ErrNotFound
	}
	for _, other := range r.s.companies {
		if other.ID != c.ID && other.Host == c.Host {
			return domain.ErrDuplicate
		}
	}
	r.s.companies[c.ID] = cloneCompany(c)
	return nil
}

func (r *CompanyRepo) List(_ context.Context, limit, offset int) ([]*entity.Company, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := make([]*entity.Company, 0, len(r.s.companies))
	for _, c := range r.s.companies {
		list = append(list, cloneCompany(c))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}

func (r *CompanyRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.companies, id)
	return nil
}

// ─── Customers ───────────────────────────────────────────────────────────────

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo clientes en memoria.
type CustomerRepo struct{ s *Store }

func cloneCustomer(c *entity.Customer) *entity.Customer {
	out := clone(c)
	out.InvoicingAddress = clone(c.InvoicingAddress)
	out.DeliveryAddress = clone(c.DeliveryAddress)
	return out
}

func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[c.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (r *CustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.customers[id]; ok {
		return cloneCustomer(c), nil
	}
	return nil, nil
}

func (r *CustomerRepo) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*entity.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.Customer
	for _, c := range r.s.customers {
		if c.OwnerID == ownerID {
			list = append(list, cloneCustomer(c))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.CompanyName != b.CompanyName {
			return a.CompanyName < b.CompanyName
		}
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID < b.ID
	})
	return page(list, limit, offset), nil
}

func (r *CustomerRepo) CountByOwner(_ context.Context, ownerID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.customers {
		if c.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *CustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.customers[c.ID] = cloneCustomer(c)
	return nil
}

func (r *CustomerRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.customers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.customers, id)
	return nil
}

// ─── Users ───────────────────────────────────────────────────────────────────

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.CompanyID == u.CompanyID && other.EmailAddress == u.EmailAddress {
			return domain.ErrEmailAlreadyExists
		}
	}
	r.s.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.users[id]), nil
}

func (r *UserRepo) GetByEmailAndCompany(_ context.Context, email, companyID string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.EmailAddress == email && u.CompanyID == companyID {
			return clone(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.users[u.ID] = clone(u)
	return nil
}

func (r *UserRepo) RecordLoginFailure(_ context.Context, id string, maxFailed int) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FailedLoginCount++
	if maxFailed > 0 && u.FailedLoginCount >= maxFailed {
		u.LockedOut = true
	}
	return clone(u), nil
}

func (r *UserRepo) ResetLoginFailures(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.FailedLoginCount = 0
	}
	return nil
}

func (r *UserRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.User
	for _, u := range r.s.users {
		if u.CompanyID == companyID {
			list = append(list, clone(u))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EmailAddress < list[j].EmailAddress })
	return page(list, limit, offset), nil
}

func (r *UserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	for alias, c := range r.s.certificates {
		if c.UserID == id {
			delete(r.s.certificates, alias)
		}
	}
	return nil
}

// ─── Client certificates ─────────────────────────────────────────────────────

var _ repository.ClientCertificateRepository = (*CertificateRepo)(nil)

// CertificateRepo certificados de cliente en memoria.
type CertificateRepo struct{ s *Store }

func (r *CertificateRepo) Create(_ context.Context, c *entity.ClientCertificate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.certificates[c.Alias]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.s.users[c.UserID]; !ok {
		return domain.ErrUserNotFound
	}
	r.s.certificates[c.Alias] = clone(c)
	return nil
}

func (r *CertificateRepo) GetByAlias(_ context.Context, alias string) (*entity.ClientCertificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.certificates[alias]), nil
}

func (r *CertificateRepo) ListByUser(_ context.Context, userID string) ([]*entity.ClientCertificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []*entity.ClientCertificate
	for _, c := range r.s.certificates {
		if c.UserID == userID {
			list = append(list, clone(c))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Created.After(list[j].Created) })
	return list, nil
}

func (r *CertificateRepo) Delete(_ context.Context, alias string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.certificates[alias]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.certificates, alias)
	return nil
}

func (r *CertificateRepo) FindUserByAlias(_ context.Context, alias string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.certificates[alias]
	if !ok {
		return nil, nil
	}
	return clone(r.s.users[c.UserID]), nil
}

// ─── Authentication devices ──────────────────────────────────────────────────

var _ repository.AuthenticationDeviceRepository = (*DeviceRepo)(nil)

// DeviceRepo dispositivos en memoria (uno por usuario).
type DeviceRepo struct{ s *Store }

func (r *DeviceRepo) Create(_ context.Context, d *entity.AuthenticationDevice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.devices[d.UserID]; ok {
		return domain.ErrDuplicate
	}
	r.s.devices[d.UserID] = clone(d)
	return nil
}

func (r *DeviceRepo) GetByUser(_ context.Context, userID string) (*entity.AuthenticationDevice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return clone(r.s.devices[userID]), nil
}

func (r *DeviceRepo) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.devices, userID)
	return nil
}

func (r *DeviceRepo) AdvanceCounter(_ context.Context, id string, counter int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.devices {
		if d.ID != id {
			continue
		}
		if counter <= d.LastCounter {
			return false, nil
		}
		d.LastCounter = counter
		return true, nil
	}
	return false, domain.ErrNotFound
}

// ─── Password reset tokens ───────────────────────────────────────────────────

var _ repository.PasswordResetRepository = (*ResetRepo)(nil)

// ResetRepo tokens de restablecimiento en memoria.
type ResetRepo struct{ s *Store }

func (r *ResetRepo) Create(_ context.Context, t *entity.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.resets[t.TokenHash] = clone(t)
	return nil
}

func (r *ResetRepo) Consume(_ context.Context, tokenHash string) (*entity.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.resets[tokenHash]
	if !ok {
		return nil, nil
	}
	delete(r.s.resets, tokenHash)
	return t, nil
}

func (r *ResetRepo) DeleteByUser(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for h, t := range r.s.resets {
		if t.UserID == userID {
			delete(r.s.resets, h)
		}
	}
	return nil
}

// PendingResets cantidad de tokens sin consumir (aserciones en tests).
func (s *Store) PendingResets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resets)
}
