package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/ports"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
)

// mailTimeout tiempo máximo para entregar el correo de restablecimiento.
const mailTimeout = 10 * time.Second

// HashResetToken hash (hex SHA-256) con el que se guarda el token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generar token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RequestPasswordReset envía un enlace de restablecimiento si el email pertenece a un usuario
// activo de la empresa. La respuesta es la misma exista o no el usuario.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, company *entity.Company, in dto.PasswordResetRequest) error {
	if !company.EmailPasswordReset {
		return domain.ErrFeatureDisabled
	}
	user, err := uc.userRepo.GetByEmailAndCompany(ctx, NormalizeEmail(in.Email), company.ID)
	if err != nil {
		return err
	}
	if user == nil || user.Status != entity.UserStatusActive {
		uc.opts.Logger.Debug().Str("company_id", company.ID).Msg("restablecimiento solicitado para email desconocido")
		return nil
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	now := uc.opts.Now()
	if err := uc.resetRepo.Create(ctx, &entity.PasswordResetToken{
		TokenHash: HashResetToken(token),
		UserID:    user.ID,
		Expires:   now.Add(uc.opts.ResetTTL),
		Created:   now,
	}); err != nil {
		return err
	}

	link := uc.opts.ResetURLBase + "?token=" + url.QueryEscape(token)
	msg := ports.MailMessage{
		To:      user.EmailAddress,
		Subject: fmt.Sprintf("%s: restablecer contraseña", company.Name),
		Text: fmt.Sprintf("Hola %s,\n\nPara elegir una nueva contraseña abre este enlace (válido %s):\n%s\n\n"+
			"Si no solicitaste el cambio, ignora este mensaje.\n", user.FirstName, uc.opts.ResetTTL, link),
		HTML: fmt.Sprintf("<p>Hola %s,</p><p>Para elegir una nueva contraseña abre <a href=\"%s\">este enlace</a> (válido %s).</p>"+
			"<p>Si no solicitaste el cambio, ignora este mensaje.</p>", user.FirstName, link, uc.opts.ResetTTL),
	}
	sendCtx, cancel := context.WithTimeout(ctx, mailTimeout)
	defer cancel()
	if err := uc.mailer.Send(sendCtx, msg); err != nil {
		// No se propaga: la respuesta no depende de si el email existe.
		uc.opts.Logger.Error().Err(err).Str("user_id", user.ID).Msg("envío de correo de restablecimiento")
	}
	return nil
}

// ResetPassword consume el token (uso único) y fija la nueva contraseña. También desbloquea la cuenta.
func (uc *AuthUseCase) ResetPassword(ctx context.Context, company *entity.Company, in dto.PasswordResetConfirmRequest) error {
	if !company.EmailPasswordReset {
		return domain.ErrFeatureDisabled
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := uc.opts.Now()
	return uc.tx.RunCredentials(ctx, func(
		userRepo repository.UserRepository,
		resetRepo repository.PasswordResetRepository,
		_ repository.AuthenticationDeviceRepository,
	) error {
		t, err := resetRepo.Consume(ctx, HashResetToken(in.Token))
		if err != nil {
			return err
		}
		if t == nil || !now.Before(t.Expires) {
			return domain.ErrTokenExpired
		}
		user, err := userRepo.GetByID(ctx, t.UserID)
		if err != nil {
			return err
		}
		if user == nil || user.CompanyID != company.ID {
			return domain.ErrTokenExpired
		}
		user.PasswordHash = string(hash)
		user.LockedOut = false
		user.FailedLoginCount = 0
		user.PasswordExpirationDate = PasswordExpiration(company, now)
		user.Modified = now
		if err := userRepo.Update(ctx, user); err != nil {
			return err
		}
		return resetRepo.DeleteByUser(ctx, user.ID)
	})
}
