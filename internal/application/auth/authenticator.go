package auth

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// EnrollAuthenticator registra (o reemplaza) Google Authenticator como segundo factor del usuario.
// Devuelve el secreto y la URL otpauth:// para el código QR.
func (uc *AuthUseCase) EnrollAuthenticator(ctx context.Context, company *entity.Company, userID string) (*dto.AuthenticatorEnrollment, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	issuer := uc.jwtCfg.Issuer
	if company != nil && company.Name != "" {
		issuer = company.Name
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: user.EmailAddress,
	})
	if err != nil {
		return nil, err
	}
	device := &entity.AuthenticationDevice{
		ID:      uuid.New().String(),
		UserID:  user.ID,
		Type:    entity.DeviceTypeGoogleAuthenticator,
		Name:    "Google Authenticator",
		Secret:  key.Secret(),
		Created: uc.opts.Now(),
	}
	err = uc.tx.RunCredentials(ctx, func(
		_ repository.UserRepository,
		_ repository.PasswordResetRepository,
		deviceRepo repository.AuthenticationDeviceRepository,
	) error {
		if err := deviceRepo.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return deviceRepo.Create(ctx, device)
	})
	if err != nil {
		return nil, err
	}
	return &dto.AuthenticatorEnrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// Authenticator estado del segundo factor del usuario.
func (uc *AuthUseCase) Authenticator(ctx context.Context, userID string) (*dto.AuthenticatorStatus, error) {
	device, err := uc.deviceRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return &dto.AuthenticatorStatus{Type: entity.DeviceTypeNone}, nil
	}
	return &dto.AuthenticatorStatus{Type: device.Type, Name: device.Name}, nil
}

// RemoveAuthenticator vuelve al login solo con contraseña.
func (uc *AuthUseCase) RemoveAuthenticator(ctx context.Context, userID string) error {
	return uc.deviceRepo.DeleteByUser(ctx, userID)
}

// totpPeriod duración de un paso TOTP en segundos (la de Google Authenticator).
const totpPeriod = 30

var totpOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// matchTOTP busca el paso de tiempo en que code es válido, con tolerancia de un paso
// hacia cada lado para relojes desfasados.
func matchTOTP(code, secret string, now time.Time) (int64, bool) {
	current := now.Unix() / totpPeriod
	for _, step := range []int64{current - 1, current, current + 1} {
		want, err := totp.GenerateCodeCustom(secret, time.Unix(step*totpPeriod, 0), totpOpts)
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return step, true
		}
	}
	return 0, false
}

// TOTPCode código vigente para un secreto (útil en herramientas y tests).
func TOTPCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCode(secret, at)
}
