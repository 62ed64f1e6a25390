package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ilves-api/pkg/config"
	"github.com/jhoicas/ilves-api/pkg/logger"
)

// rootOptions flags globales compartidas por los subcomandos.
type rootOptions struct {
	logLevel string
	cfg      *config.Config
}

// config carga la configuración una sola vez (env, .env, config.*).
func (o *rootOptions) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	o.cfg = cfg
	return cfg, nil
}

func (o *rootOptions) logger(cmd *cobra.Command) *logger.Logger {
	return logger.New(logger.Config{Env: "development", Level: o.logLevel, Out: cmd.ErrOrStderr()})
}

// newRootCommand arma el árbol de comandos de ilvesctl.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "ilvesctl",
		Short: "Administración de Ilves: key store, migraciones e importación de clientes",
		Long: `ilvesctl agrupa las tareas de operación que no pasan por la API HTTP.

Examples:
  # Certificados guardados en el key store del sitio
  ilvesctl keystore list

  # Aplicar migraciones pendientes
  ilvesctl migrate up

  # Importar clientes de una empresa
  ilvesctl customers import clientes.csv --company <id>`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "nivel de log (debug, info, warn, error)")

	root.AddCommand(newKeystoreCommand(opts))
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newCustomersCommand(opts))
	return root
}

// Execute ejecuta ilvesctl; lo llama main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
