package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ilves-api/internal/application/usecase"
	"github.com/jhoicas/ilves-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ilves-api/internal/infrastructure/postgres"
)

func newCustomersCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Operaciones masivas sobre clientes",
	}

	var companyID, encoding string
	imp := &cobra.Command{
		Use:   "import <archivo.csv>",
		Short: "Importar clientes desde un CSV con cabecera",
		Long: `Importar clientes de una empresa desde un CSV con cabecera.

Columnas reconocidas: first_name, last_name, email_address, phone_number, company_name,
company_code, address_line_one, address_line_two, postal_code, city, country.
Las filas inválidas se informan con su número de línea y no se importan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			cfg, err := root.config()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := postgres.NewPool(ctx, cfg.LoadDB("site"))
			if err != nil {
				return fmt.Errorf("conexión a PostgreSQL: %w", err)
			}
			defer pool.Close()

			uc := usecase.NewCustomerUseCase(
				postgres.NewCustomerRepository(pool),
				postgres.NewCompanyRepository(pool),
				postgres.NewTxRunner(pool),
				pdf.NewMarotoPDFGenerator(),
			)
			res, err := uc.Import(ctx, companyID, f, encoding)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "importados: %d, omitidos: %d\n", res.Imported, res.Skipped)
			if len(res.Errors) > 0 {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "LINEA\tERROR")
				for _, e := range res.Errors {
					fmt.Fprintf(w, "%d\t%s\n", e.Line, e.Message)
				}
				return w.Flush()
			}
			return nil
		},
	}
	imp.Flags().StringVar(&companyID, "company", "", "ID de la empresa dueña de los clientes")
	imp.Flags().StringVar(&encoding, "encoding", usecase.EncodingAuto, "utf-8, iso-8859-1 o vacío (automático)")
	_ = imp.MarkFlagRequired("company")

	cmd.AddCommand(imp)
	return cmd
}
