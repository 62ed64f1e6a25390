package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ilves-api/internal/infrastructure/postgres"
)

type migrateOptions struct {
	*rootOptions
	unit     string
	category string
}

func (o *migrateOptions) databaseURL() (string, error) {
	cfg, err := o.config()
	if err != nil {
		return "", err
	}
	return cfg.LoadDB(o.category).ConnectionString(), nil
}

func newMigrateCommand(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del esquema",
		Long: `Aplicar o revertir las migraciones embebidas de una unidad de persistencia.

La categoría elige el perfil de conexión: "site" usa DB_*, otra categoría usa DB_<CATEGORIA>_*.`,
	}
	cmd.PersistentFlags().StringVar(&opts.unit, "unit", postgres.UnitSite, "unidad de persistencia")
	cmd.PersistentFlags().StringVar(&opts.category, "category", "site", "categoría de propiedades de la base de datos")

	up := &cobra.Command{
		Use:   "up",
		Short: "Aplicar las migraciones pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := opts.databaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(url, opts.unit); err != nil {
				return err
			}
			opts.logger(cmd).Info().Str("unit", opts.unit).Msg("migraciones aplicadas")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revertir migraciones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps debe ser mayor que 0")
			}
			url, err := opts.databaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(url, opts.unit, steps); err != nil {
				return err
			}
			opts.logger(cmd).Info().Str("unit", opts.unit).Int("steps", steps).Msg("migraciones revertidas")
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "cantidad de migraciones a revertir")

	version := &cobra.Command{
		Use:   "version",
		Short: "Versión actual del esquema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := opts.databaseURL()
			if err != nil {
				return err
			}
			v, dirty, err := postgres.MigrationVersion(url, opts.unit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d dirty=%t\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}
