package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ilves-api/internal/application/auth"
	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// UserUseCase administración de usuarios dentro de la empresa del administrador.
type UserUseCase struct {
	repo  repository.UserRepository
	cache CertificateCache
	now   func() time.Time
}

// NewUserUseCase construye el caso de uso. cache puede ser nil.
func NewUserUseCase(repo repository.UserRepository, cache CertificateCache) *UserUseCase {
	return &UserUseCase{repo: repo, cache: cache, now: time.Now}
}

func (uc *UserUseCase) get(ctx context.Context, companyID, id string) (*entity.User, error) {
	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || u.CompanyID != companyID {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// invalidate descarta los usuarios cacheados por certificado tras un cambio de estado.
func (uc *UserUseCase) invalidate(userID string) {
	if uc.cache != nil {
		uc.cache.InvalidateUser(userID)
	}
}

// Create crea un usuario en la empresa. Devuelve domain.ErrEmailAlreadyExists si el email ya existe en ella.
func (uc *UserUseCase) Create(ctx context.Context, company *entity.Company, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	user := &entity.User{
		ID:                     uuid.New().String(),
		CompanyID:              company.ID,
		FirstName:              strings.TrimSpace(in.FirstName),
		LastName:               strings.TrimSpace(in.LastName),
		EmailAddress:           auth.NormalizeEmail(in.EmailAddress),
		PhoneNumber:            strings.TrimSpace(in.PhoneNumber),
		PasswordHash:           string(hash),
		Role:                   in.Role,
		Status:                 entity.UserStatusActive,
		PasswordExpirationDate: auth.PasswordExpiration(company, now),
		Created:                now,
		Modified:               now,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return auth.ToUserResponse(user), nil
}

// GetByID obtiene un usuario de la empresa.
func (uc *UserUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.UserResponse, error) {
	u, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return auth.ToUserResponse(u), nil
}

// List lista los usuarios de la empresa.
func (uc *UserUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.UserListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.UserResponse, 0, len(list))
	for _, u := range list {
		items = append(items, *auth.ToUserResponse(u))
	}
	return &dto.UserListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Update aplica los campos presentes. Un cambio de contraseña renueva su vencimiento.
func (uc *UserUseCase) Update(ctx context.Context, company *entity.Company, id string, in dto.UpdateUserRequest) (*dto.UserResponse, error) {
	u, err := uc.get(ctx, company.ID, id)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	setString(&u.FirstName, in.FirstName)
	setString(&u.LastName, in.LastName)
	setString(&u.PhoneNumber, in.PhoneNumber)
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Status != nil {
		u.Status = *in.Status
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = string(hash)
		u.PasswordExpirationDate = auth.PasswordExpiration(company, now)
	}
	u.Modified = now
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	uc.invalidate(u.ID)
	return auth.ToUserResponse(u), nil
}

// Unlock desbloquea la cuenta y reinicia el contador de intentos fallidos.
func (uc *UserUseCase) Unlock(ctx context.Context, companyID, id string) (*dto.UserResponse, error) {
	u, err := uc.get(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	u.LockedOut = false
	u.FailedLoginCount = 0
	u.Modified = uc.now()
	if err := uc.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	uc.invalidate(u.ID)
	return auth.ToUserResponse(u), nil
}

// Delete elimina un usuario de la empresa. Un administrador no puede eliminarse a sí mismo.
func (uc *UserUseCase) Delete(ctx context.Context, companyID, id, callerID string) error {
	if id == callerID {
		return domain.ErrConflict
	}
	if _, err := uc.get(ctx, companyID, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(id)
	return nil
}
