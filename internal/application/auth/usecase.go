package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/ports"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
	"github.com/jhoicas/ilves-api/pkg/gravatar"
	"github.com/jhoicas/ilves-api/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Options parámetros no relacionados con JWT.
type Options struct {
	// ResetURLBase URL pública del formulario de nueva contraseña; se agrega ?token=...
	ResetURLBase string
	// ResetTTL vigencia del token de restablecimiento (por defecto 2h).
	ResetTTL time.Duration
	// ClientCertificateLogin indica si el conector HTTPS pide certificado de cliente.
	ClientCertificateLogin bool
	// Certificates caché de usuarios por certificado; se invalida al bloquear una cuenta.
	Certificates CertificateCache
	Logger       zerolog.Logger
	// Now reloj inyectable (tests); nil = time.Now.
	Now func() time.Time
}

// TxRunner transacción sobre usuario, tokens y dispositivos.
type TxRunner interface {
	RunCredentials(ctx context.Context, fn func(
		userRepo repository.UserRepository,
		resetRepo repository.PasswordResetRepository,
		deviceRepo repository.AuthenticationDeviceRepository,
	) error) error
}

// CertificateCache caché de usuarios por certificado de cliente.
type CertificateCache interface {
	InvalidateUser(userID string)
}

// AuthUseCase casos de uso de autenticación: login (contraseña, TOTP, certificado),
// autoregistro, restablecimiento de contraseña y segundo factor.
type AuthUseCase struct {
	userRepo   repository.UserRepository
	deviceRepo repository.AuthenticationDeviceRepository
	resetRepo  repository.PasswordResetRepository
	tx         TxRunner
	mailer     ports.Mailer
	jwtCfg     JWTConfig
	opts       Options
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(
	userRepo repository.UserRepository,
	deviceRepo repository.AuthenticationDeviceRepository,
	resetRepo repository.PasswordResetRepository,
	tx TxRunner,
	mailer ports.Mailer,
	jwtCfg JWTConfig,
	opts Options,
) *AuthUseCase {
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = 2 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthUseCase{
		userRepo:   userRepo,
		deviceRepo: deviceRepo,
		resetRepo:  resetRepo,
		tx:         tx,
		mailer:     mailer,
		jwtCfg:     jwtCfg,
		opts:       opts,
	}
}

// NormalizeEmail recorta y pliega mayúsculas del email (comparación sin distinguir caso).
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// LoginOptions flujos habilitados para la empresa. El login por contraseña siempre lo está.
func (uc *AuthUseCase) LoginOptions(company *entity.Company) dto.LoginOptionsResponse {
	return dto.LoginOptionsResponse{
		CompanyID:          company.ID,
		CompanyName:        company.Name,
		Password:           true,
		SelfRegistration:   company.SelfRegistration,
		EmailPasswordReset: company.EmailPasswordReset,
		OpenIDLogin:        company.OpenIDLogin,
		OAuthLogin:         company.OAuthLogin,
		ClientCertificate:  uc.opts.ClientCertificateLogin,
	}
}

// Login verifica email/password en la empresa y, si el usuario tiene Google Authenticator,
// exige el código TOTP. Los fallos incrementan el contador y bloquean la cuenta al llegar
// al máximo de la empresa; un login correcto lo reinicia.
func (uc *AuthUseCase) Login(ctx context.Context, company *entity.Company, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmailAndCompany(ctx, NormalizeEmail(in.Email), company.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if user.LockedOut {
		return nil, domain.ErrLockedOut
	}

	device, err := uc.deviceRepo.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	deviceType := entity.DeviceTypeNone
	if device != nil {
		deviceType = device.Type
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, uc.loginFailed(ctx, company, user, domain.ErrUnauthorized)
	}

	method := jwt.MethodPassword
	switch deviceType {
	case entity.DeviceTypeNone:
	case entity.DeviceTypeGoogleAuthenticator:
		if in.Code == "" {
			return nil, domain.ErrSecondFactorRequired
		}
		step, ok := matchTOTP(in.Code, device.Secret, uc.opts.Now())
		if !ok {
			return nil, uc.loginFailed(ctx, company, user, domain.ErrInvalidSecondFactor)
		}
		accepted, err := uc.deviceRepo.AdvanceCounter(ctx, device.ID, step)
		if err != nil {
			return nil, err
		}
		if !accepted {
			// Código ya usado (o de un paso anterior al último aceptado).
			return nil, uc.loginFailed(ctx, company, user, domain.ErrInvalidSecondFactor)
		}
		method = jwt.MethodTOTP
	default:
		return nil, domain.ErrForbidden
	}

	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}
	if user.FailedLoginCount > 0 {
		if err := uc.userRepo.ResetLoginFailures(ctx, user.ID); err != nil {
			return nil, err
		}
		user.FailedLoginCount = 0
	}
	return uc.issue(user, method)
}

// loginFailed registra el intento fallido y devuelve ErrLockedOut si la cuenta quedó bloqueada.
func (uc *AuthUseCase) loginFailed(ctx context.Context, company *entity.Company, user *entity.User, cause error) error {
	updated, err := uc.userRepo.RecordLoginFailure(ctx, user.ID, company.MaxFailedLoginCount)
	if err != nil {
		return err
	}
	if updated.LockedOut {
		uc.invalidateCertificates(user.ID)
		uc.opts.Logger.Warn().
			Str("user_id", user.ID).
			Str("company_id", company.ID).
			Int("failed_login_count", updated.FailedLoginCount).
			Msg("cuenta bloqueada por intentos fallidos")
		return domain.ErrLockedOut
	}
	return cause
}

// invalidateCertificates descarta el usuario del caché de certificados para que
// el bloqueo aplique también al login por certificado.
func (uc *AuthUseCase) invalidateCertificates(userID string) {
	if uc.opts.Certificates != nil {
		uc.opts.Certificates.InvalidateUser(userID)
	}
}

// LoginWithCertificate emite un token para el usuario ya identificado por su certificado de cliente.
func (uc *AuthUseCase) LoginWithCertificate(_ context.Context, user *entity.User) (*dto.LoginResponse, error) {
	if user == nil {
		return nil, domain.ErrCertificateUnknown
	}
	if !user.CanAuthenticate() {
		return nil, domain.ErrForbidden
	}
	return uc.issue(user, jwt.MethodCertificate)
}

// Register crea un usuario con rol user en la empresa, solo si permite autoregistro.
func (uc *AuthUseCase) Register(ctx context.Context, company *entity.Company, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if !company.SelfRegistration {
		return nil, domain.ErrFeatureDisabled
	}
	email := NormalizeEmail(in.EmailAddress)
	existing, err := uc.userRepo.GetByEmailAndCompany(ctx, email, company.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.opts.Now()
	user := &entity.User{
		ID:                     uuid.New().String(),
		CompanyID:              company.ID,
		FirstName:              strings.TrimSpace(in.FirstName),
		LastName:               strings.TrimSpace(in.LastName),
		EmailAddress:           email,
		PhoneNumber:            strings.TrimSpace(in.PhoneNumber),
		PasswordHash:           string(hash),
		Role:                   entity.RoleUser,
		Status:                 entity.UserStatusActive,
		PasswordExpirationDate: PasswordExpiration(company, now),
		Created:                now,
		Modified:               now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// Me devuelve el usuario autenticado.
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return ToUserResponse(user), nil
}

func (uc *AuthUseCase) issue(user *entity.User, method string) (*dto.LoginResponse, error) {
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.Role, method, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:           token,
		AuthMethod:      method,
		User:            *ToUserResponse(user),
		PasswordExpired: user.PasswordExpired(uc.opts.Now()),
	}, nil
}

// PasswordExpiration vencimiento de una contraseña fijada en now según la política de la empresa (nil = no vence).
func PasswordExpiration(company *entity.Company, now time.Time) *time.Time {
	if company == nil || company.PasswordValidityPeriodDays <= 0 {
		return nil
	}
	t := now.AddDate(0, 0, company.PasswordValidityPeriodDays)
	return &t
}

// ToUserResponse convierte la entidad a DTO (sin hash de contraseña).
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:                     u.ID,
		CompanyID:              u.CompanyID,
		FirstName:              u.FirstName,
		LastName:               u.LastName,
		EmailAddress:           u.EmailAddress,
		PhoneNumber:            u.PhoneNumber,
		Role:                   u.Role,
		Status:                 u.Status,
		LockedOut:              u.LockedOut,
		FailedLoginCount:       u.FailedLoginCount,
		PasswordExpirationDate: u.PasswordExpirationDate,
		GravatarURL:            gravatar.URL(u.EmailAddress),
		Created:                u.Created,
		Modified:               u.Modified,
	}
}
