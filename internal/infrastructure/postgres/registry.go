package postgres

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ilves-api/pkg/config"
)

// Closer recurso que el Registry puede cerrar.
type Closer interface {
	Close()
}

// OpenFunc crea el recurso de una unidad de persistencia para una categoría de propiedades.
type OpenFunc[T Closer] func(ctx context.Context, unit, category string) (T, error)

// MigrateFunc actualiza el esquema de la unidad sobre un recurso recién creado.
type MigrateFunc[T Closer] func(ctx context.Context, unit, category string, resource T) error

// Registry memoiza un recurso (pool) por clave unit + "-" + category.
// Un solo mutex garantiza como máximo una construcción por clave.
type Registry[T Closer] struct {
	mu      sync.Mutex
	items   map[string]T
	open    OpenFunc[T]
	migrate MigrateFunc[T]
}

// NewRegistry construye el registro. migrate puede ser nil.
func NewRegistry[T Closer](open OpenFunc[T], migrate MigrateFunc[T]) *Registry[T] {
	return &Registry[T]{items: make(map[string]T), open: open, migrate: migrate}
}

func registryKey(unit, category string) string {
	return unit + "-" + category
}

// Get devuelve el recurso de la clave; lo crea y migra la primera vez.
// Si la migración falla el recurso se cierra y no queda registrado.
func (r *Registry[T]) Get(ctx context.Context, unit, category string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(unit, category)
	if res, ok := r.items[key]; ok {
		return res, nil
	}

	var zero T
	res, err := r.open(ctx, unit, category)
	if err != nil {
		return zero, fmt.Errorf("abrir unidad de persistencia %s: %w", key, err)
	}
	if r.migrate != nil {
		if err := r.migrate(ctx, unit, category, res); err != nil {
			res.Close()
			return zero, fmt.Errorf("error actualizando la base de datos %s: %w", key, err)
		}
	}
	r.items[key] = res
	return res, nil
}

// Remove cierra y olvida el recurso de la clave para permitir reintentar.
func (r *Registry[T]) Remove(unit, category string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(unit, category)
	if res, ok := r.items[key]; ok {
		res.Close()
		delete(r.items, key)
	}
}

// Keys claves registradas, ordenadas.
func (r *Registry[T]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Close cierra todos los recursos.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, res := range r.items {
		res.Close()
		delete(r.items, key)
	}
}

// NewPoolRegistry registro de pools pgx: cada categoría resuelve su perfil con cfg.LoadDB
// y cada pool nuevo aplica las migraciones embebidas de su unidad.
func NewPoolRegistry(cfg *config.Config, log zerolog.Logger) *Registry[*pgxpool.Pool] {
	open := func(ctx context.Context, unit, category string) (*pgxpool.Pool, error) {
		return NewPool(ctx, cfg.LoadDB(category))
	}
	migrate := func(ctx context.Context, unit, category string, _ *pgxpool.Pool) error {
		db := cfg.LoadDB(category)
		if err := MigrateUp(db.ConnectionString(), unit); err != nil {
			return err
		}
		log.Info().Str("unit", unit).Str("category", category).Msg("esquema actualizado")
		return nil
	}
	return NewRegistry[*pgxpool.Pool](open, migrate)
}
