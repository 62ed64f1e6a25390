package certcache_test

import (
	"context"
	"crypto/x509"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/infrastructure/certcache"
	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
)

type fakeLookup struct {
	mu    sync.Mutex
	users map[string]*entity.User
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (f *fakeLookup) FindUserByAlias(_ context.Context, alias string) (*entity.User, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[alias], nil
}

func (f *fakeLookup) set(alias string, u *entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[alias] = u
}

func activeUser(id string) *entity.User {
	return &entity.User{ID: id, Status: entity.UserStatusActive, Role: entity.RoleUser}
}

func TestUserByCertificate_CargaYCachea(t *testing.T) {
	cert, _, err := keystore.Generator{KeySize: 1024}.SelfSigned("u1", "")
	require.NoError(t, err)
	repo := &fakeLookup{users: map[string]*entity.User{keystore.Fingerprint(cert): activeUser("u1")}}
	cache := certcache.New(repo, 10, time.Minute)

	// Sin carga: no consulta el repositorio.
	u, err := cache.UserByCertificate(context.Background(), cert, false)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, int32(0), repo.calls.Load())

	u, err = cache.UserByCertificate(context.Background(), cert, true)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.ID)

	u, err = cache.UserByCertificate(context.Background(), cert, false)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestUserByCertificate_DesconocidoNoSeCachea(t *testing.T) {
	cert, _, err := keystore.Generator{KeySize: 1024}.SelfSigned("nuevo", "")
	require.NoError(t, err)
	repo := &fakeLookup{users: map[string]*entity.User{}}
	cache := certcache.New(repo, 10, time.Minute)

	u, err := cache.UserByCertificate(context.Background(), cert, true)
	require.NoError(t, err)
	assert.Nil(t, u)

	// Se registra el certificado: la siguiente consulta lo reconoce.
	repo.set(keystore.Fingerprint(cert), activeUser("u2"))
	u, err = cache.UserByCertificate(context.Background(), cert, true)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "u2", u.ID)
	assert.Equal(t, int32(2), repo.calls.Load())
}

func TestUserByCertificate_BloqueadoEsDesconocido(t *testing.T) {
	cert, _, err := keystore.Generator{KeySize: 1024}.SelfSigned("b", "")
	require.NoError(t, err)
	locked := activeUser("u3")
	locked.LockedOut = true
	repo := &fakeLookup{users: map[string]*entity.User{keystore.Fingerprint(cert): locked}}
	cache := certcache.New(repo, 10, time.Minute)

	u, err := cache.UserByCertificate(context.Background(), cert, true)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Equal(t, 0, cache.Len())
}

func TestUserByCertificate_ErrorDelRepositorio(t *testing.T) {
	cert, _, err := keystore.Generator{KeySize: 1024}.SelfSigned("e", "")
	require.NoError(t, err)
	repo := &fakeLookup{err: errors.New("db caída")}
	cache := certcache.New(repo, 10, time.Minute)

	_, err = cache.UserByCertificate(context.Background(), cert, true)
	require.Error(t, err)
}

func TestUserByCertificate_ConsultasConcurrentesUnaCarga(t *testing.T) {
	cert, _, err := keystore.Generator{KeySize: 1024}.SelfSigned("c", "")
	require.NoError(t, err)
	repo := &fakeLookup{
		users: map[string]*entity.User{keystore.Fingerprint(cert): activeUser("u4")},
		delay: 50 * time.Millisecond,
	}
	cache := certcache.New(repo, 10, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := cache.UserByCertificate(context.Background(), cert, true)
			assert.NoError(t, err)
			assert.NotNil(t, u)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestInvalidate(t *testing.T) {
	gen := keystore.Generator{KeySize: 1024}
	c1, _, err := gen.SelfSigned("a", "")
	require.NoError(t, err)
	c2, _, err := gen.SelfSigned("b", "")
	require.NoError(t, err)
	c3, _, err := gen.SelfSigned("c", "")
	require.NoError(t, err)
	repo := &fakeLookup{users: map[string]*entity.User{
		keystore.Fingerprint(c1): activeUser("u1"),
		keystore.Fingerprint(c2): activeUser("u1"),
		keystore.Fingerprint(c3): activeUser("u2"),
	}}
	cache := certcache.New(repo, 10, time.Minute)
	ctx := context.Background()
	for _, c := range []*x509.Certificate{c1, c2, c3} {
		_, err := cache.UserByCertificate(ctx, c, true)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, cache.Len())

	cache.Invalidate(keystore.Fingerprint(c3))
	assert.Equal(t, 2, cache.Len())

	cache.InvalidateUser("u1")
	assert.Equal(t, 0, cache.Len())

	_, err = cache.UserByCertificate(ctx, c3, true)
	require.NoError(t, err)
	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}
