// Package certcache resuelve usuarios a partir de certificados de cliente TLS.
package certcache

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/ilves-api/internal/domain/entity"
	"github.com/jhoicas/ilves-api/internal/domain/repository"
	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
	"github.com/jhoicas/ilves-api/internal/infrastructure/metrics"
)

// UserLookup subconjunto de ClientCertificateRepository que usa la caché.
type UserLookup interface {
	FindUserByAlias(ctx context.Context, alias string) (*entity.User, error)
}

var _ UserLookup = (repository.ClientCertificateRepository)(nil)

// UserCertificateCache caché huella -> usuario con tamaño y TTL acotados.
// Los certificados desconocidos no se cachean: un certificado recién registrado se reconoce de inmediato.
type UserCertificateCache struct {
	repo  UserLookup
	lru   *expirable.LRU[string, *entity.User]
	group singleflight.Group
}

// New construye la caché. size <= 0 usa 1000; ttl <= 0 desactiva la expiración.
func New(repo UserLookup, size int, ttl time.Duration) *UserCertificateCache {
	if size <= 0 {
		size = 1000
	}
	if ttl < 0 {
		ttl = 0
	}
	return &UserCertificateCache{
		repo: repo,
		lru:  expirable.NewLRU[string, *entity.User](size, nil, ttl),
	}
}

// UserByCertificate devuelve el usuario del certificado o nil si es desconocido.
// Con load=false solo consulta la caché. Usuarios bloqueados o inactivos cuentan como desconocidos.
func (c *UserCertificateCache) UserByCertificate(ctx context.Context, cert *x509.Certificate, load bool) (*entity.User, error) {
	if cert == nil {
		return nil, nil
	}
	fp := keystore.Fingerprint(cert)
	if u, ok := c.lru.Get(fp); ok {
		metrics.ClientCertificateLookups.WithLabelValues("hit").Inc()
		return u, nil
	}
	if !load {
		metrics.ClientCertificateLookups.WithLabelValues("miss").Inc()
		return nil, nil
	}

	v, err, _ := c.group.Do(fp, func() (any, error) {
		u, err := c.repo.FindUserByAlias(ctx, fp)
		if err != nil {
			return nil, err
		}
		if !u.CanAuthenticate() {
			return (*entity.User)(nil), nil
		}
		c.lru.Add(fp, u)
		return u, nil
	})
	if err != nil {
		metrics.ClientCertificateLookups.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("buscar usuario del certificado %s: %w", fp, err)
	}
	u := v.(*entity.User)
	if u == nil {
		metrics.ClientCertificateLookups.WithLabelValues("unknown").Inc()
		return nil, nil
	}
	metrics.ClientCertificateLookups.WithLabelValues("loaded").Inc()
	return u, nil
}

// Invalidate olvida una huella (certificado revocado).
func (c *UserCertificateCache) Invalidate(fingerprint string) {
	c.lru.Remove(fingerprint)
}

// InvalidateUser olvida todas las huellas de un usuario (bloqueo, baja, cambio de rol).
func (c *UserCertificateCache) InvalidateUser(userID string) {
	for _, fp := range c.lru.Keys() {
		if u, ok := c.lru.Peek(fp); ok && u.ID == userID {
			c.lru.Remove(fp)
		}
	}
}

// Purge vacía la caché.
func (c *UserCertificateCache) Purge() {
	c.lru.Purge()
}

// Len entradas vigentes.
func (c *UserCertificateCache) Len() int {
	return c.lru.Len()
}
