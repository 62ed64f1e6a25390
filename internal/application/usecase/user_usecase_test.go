package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/ilves-api/internal/application/dto"
	"github.com/jhoicas/ilves-api/internal/application/usecase"
	"github.com/jhoicas/ilves-api/internal/domain"
	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/testutil/memrepo"
)

type fakeCache struct {
	mu           sync.Mutex
	fingerprints []string
	users        []string
}

func (f *fakeCache) Invalidate(fingerprint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fingerprints = append(f.fingerprints, fingerprint)
}

func (f *fakeCache) InvalidateUser(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
}

func TestUser_CreateYObtener(t *testing.T) {
	store := memrepo.New()
	uc := usecase.NewUserUseCase(store.Users(), nil)
	company := &entity.Company{ID: "c1", PasswordValidityPeriodDays: 30}
	ctx := context.Background()

	resp, err := uc.Create(ctx, company, dto.CreateUserRequest{
		FirstName: "Ana", LastName: "Pérez", EmailAddress: "ANA@acme.test", Password: "secreto123", Role: entity.RoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@acme.test", resp.EmailAddress)
	assert.Equal(t, entity.UserStatusActive, resp.Status)
	assert.NotNil(t, resp.PasswordExpirationDate)
	assert.Contains(t, resp.GravatarURL, "gravatar.com/avatar/")

	u, err := store.Users().GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secreto123")))

	_, err = uc.Create(ctx, company, dto.CreateUserRequest{
		FirstName: "Otra", LastName: "Ana", EmailAddress: "ana@acme.test", Password: "secreto123", Role: entity.RoleUser,
	})
	require.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.GetByID(ctx, "c2", resp.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUser_UpdateUnlockDelete(t *testing.T) {
	store := memrepo.New()
	cache := &fakeCache{}
	uc := usecase.NewUserUseCase(store.Users(), cache)
	company := &entity.Company{ID: "c1"}
	ctx := context.Background()

	created, err := uc.Create(ctx, company, dto.CreateUserRequest{
		FirstName: "Ana", LastName: "Pérez", EmailAddress: "ana@acme.test", Password: "secreto123", Role: entity.RoleUser,
	})
	require.NoError(t, err)

	status := entity.UserStatusInactive
	updated, err := uc.Update(ctx, company, created.ID, dto.UpdateUserRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, entity.UserStatusInactive, updated.Status)
	assert.Equal(t, []string{created.ID}, cache.users)

	_, err = store.Users().RecordLoginFailure(ctx, created.ID, 1)
	require.NoError(t, err)
	unlocked, err := uc.Unlock(ctx, "c1", created.ID)
	require.NoError(t, err)
	assert.False(t, unlocked.LockedOut)
	assert.Zero(t, unlocked.FailedLoginCount)

	require.ErrorIs(t, uc.Delete(ctx, "c1", created.ID, created.ID), domain.ErrConflict)
	require.NoError(t, uc.Delete(ctx, "c1", created.ID, "admin"))
	_, err = uc.GetByID(ctx, "c1", created.ID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	list, err := uc.List(ctx, "c1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}
