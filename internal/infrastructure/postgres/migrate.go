package postgres

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// UnitSite unidad de persistencia principal (empresas, clientes, usuarios, certificados).
const UnitSite = "site"

//go:embed migrations
var migrationsFS embed.FS

// Migrations devuelve el árbol de migraciones embebido de una unidad de persistencia.
func Migrations(unit string) (fs.FS, error) {
	sub, err := fs.Sub(migrationsFS, "migrations/"+unit)
	if err != nil {
		return nil, fmt.Errorf("migraciones de la unidad '%s': %w", unit, err)
	}
	if _, err := fs.Stat(sub, "."); err != nil {
		return nil, fmt.Errorf("migraciones de la unidad '%s': %w", unit, err)
	}
	return sub, nil
}

// MigrateUp aplica todas las migraciones pendientes de la unidad.
func MigrateUp(databaseURL, unit string) error {
	m, err := newMigrator(databaseURL, unit)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// MigrateDown revierte steps migraciones de la unidad.
func MigrateDown(databaseURL, unit string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrate down: steps must be > 0")
	}
	m, err := newMigrator(databaseURL, unit)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	return nil
}

// MigrationVersion devuelve la versión aplicada y si quedó marcada como sucia.
func MigrationVersion(databaseURL, unit string) (uint, bool, error) {
	m, err := newMigrator(databaseURL, unit)
	if err != nil {
		return 0, false, err
	}
	defer func() { _, _ = m.Close() }()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrate version: %w", err)
	}
	return v, dirty, nil
}

func newMigrator(databaseURL, unit string) (*migrate.Migrate, error) {
	migrations, err := Migrations(unit)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("init migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

// migrateURL adapta un DSN postgres:// al esquema del driver pgx/v5 de golang-migrate.
func migrateURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		u.Scheme = "pgx5"
	}
	return u.String()
}
