package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/ilves-api/internal/infrastructure/keystore"
)

type keystoreOptions struct {
	*rootOptions
	path     string
	password string
	kdfCost  int
}

// open abre el key store indicado por flags o, si faltan, por la configuración.
func (o *keystoreOptions) open() (*keystore.Store, error) {
	path, password := o.path, o.password
	if path == "" || password == "" {
		cfg, err := o.config()
		if err != nil {
			return nil, err
		}
		if path == "" {
			path = cfg.KeyStore.Path
		}
		if password == "" {
			password = cfg.KeyStore.Password
		}
	}
	if password == "" {
		return nil, errors.New("falta la contraseña del key store (--password o KEYSTORE_PASSWORD)")
	}
	var opts []keystore.Option
	if o.kdfCost > 0 {
		opts = append(opts, keystore.WithKDFCost(o.kdfCost))
	}
	return keystore.Open(path, password, opts...), nil
}

func newKeystoreCommand(root *rootOptions) *cobra.Command {
	opts := &keystoreOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Gestionar el key store del sitio",
		Long: `Gestionar el key store con el certificado del servidor y los certificados de cliente.

Examples:
  ilvesctl keystore list
  ilvesctl keystore ensure-server
  ilvesctl keystore generate --cn ana@example.com --entry-password secreto
  ilvesctl keystore remove <alias>
  ilvesctl keystore import-p12 cert.p12 --p12-password x --entry-password y`,
	}
	cmd.PersistentFlags().StringVar(&opts.path, "keystore", "", "ruta del key store (default: KEYSTORE_PATH)")
	cmd.PersistentFlags().StringVar(&opts.password, "password", "", "contraseña del key store (default: KEYSTORE_PASSWORD)")
	cmd.PersistentFlags().IntVar(&opts.kdfCost, "kdf-cost", 0, "costo scrypt para archivos nuevos")
	_ = cmd.PersistentFlags().MarkHidden("kdf-cost")

	cmd.AddCommand(
		newKeystoreListCommand(opts),
		newKeystoreEnsureServerCommand(opts),
		newKeystoreGenerateCommand(opts),
		newKeystoreRemoveCommand(opts),
		newKeystoreImportP12Command(opts),
		newKeystoreInspectP12Command(opts),
	)
	return cmd
}

func newKeystoreListCommand(opts *keystoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Listar las entradas del key store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := opts.open()
			if err != nil {
				return err
			}
			entries, err := ks.Entries()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ALIAS\tKIND\tSUBJECT\tNOT AFTER\tFINGERPRINT")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Alias, e.Kind, e.Subject, e.NotAfter.Format("2006-01-02"), e.Fingerprint)
			}
			return w.Flush()
		},
	}
}

func newKeystoreEnsureServerCommand(opts *keystoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-server",
		Short: "Generar el certificado autofirmado del servidor si no existe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			ks, err := opts.open()
			if err != nil {
				return err
			}
			k := cfg.KeyStore
			created, err := ks.EnsureServerCertificate(keystore.Generator{KeySize: k.KeySize},
				k.SelfSignHostName, k.SelfSignIPAddress, k.ServerCertificateAlias, k.ServerCertificatePassword)
			if err != nil {
				return err
			}
			log := opts.logger(cmd)
			if created {
				log.Info().Str("alias", k.ServerCertificateAlias).Str("cn", k.SelfSignHostName).Msg("certificado de servidor generado")
			} else {
				log.Info().Str("alias", k.ServerCertificateAlias).Msg("el certificado de servidor ya existe")
			}
			return nil
		},
	}
}

func newKeystoreGenerateCommand(opts *keystoreOptions) *cobra.Command {
	var (
		cn, ip, entryPassword string
		keySize               int
		certOut, keyOut       string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generar un certificado autofirmado (alias = huella SHA-256)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := opts.open()
			if err != nil {
				return err
			}
			alias, cert, key, err := ks.GenerateSelfSigned(keystore.Generator{KeySize: keySize}, cn, ip, entryPassword)
			if err != nil {
				return err
			}
			if certOut != "" {
				if err := os.WriteFile(certOut, []byte(keystore.EncodeCertificatePEM(cert)), 0o644); err != nil {
					return fmt.Errorf("escribir certificado: %w", err)
				}
			}
			if keyOut != "" {
				keyPEM, err := keystore.EncodePrivateKeyPEM(key)
				if err != nil {
					return err
				}
				if err := os.WriteFile(keyOut, []byte(keyPEM), 0o600); err != nil {
					return fmt.Errorf("escribir llave: %w", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), alias)
			return nil
		},
	}
	cmd.Flags().StringVar(&cn, "cn", "", "nombre común del certificado")
	cmd.Flags().StringVar(&ip, "ip", "", "dirección IP (SAN) opcional")
	cmd.Flags().StringVar(&entryPassword, "entry-password", "", "contraseña de la entrada")
	cmd.Flags().IntVar(&keySize, "key-size", keystore.DefaultKeySize, "bits de la llave RSA")
	cmd.Flags().StringVar(&certOut, "cert-out", "", "archivo PEM de salida del certificado")
	cmd.Flags().StringVar(&keyOut, "key-out", "", "archivo PEM de salida de la llave privada")
	_ = cmd.MarkFlagRequired("cn")
	_ = cmd.MarkFlagRequired("entry-password")
	return cmd
}

func newKeystoreRemoveCommand(opts *keystoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <alias>",
		Short: "Eliminar una entrada del key store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := opts.open()
			if err != nil {
				return err
			}
			return ks.RemoveCertificate(args[0])
		},
	}
}

func newKeystoreImportP12Command(opts *keystoreOptions) *cobra.Command {
	var p12Password, alias, entryPassword string
	cmd := &cobra.Command{
		Use:   "import-p12 <archivo>",
		Short: "Importar llave y certificado de un PKCS#12",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ks, err := opts.open()
			if err != nil {
				return err
			}
			got, err := ks.ImportPKCS12(data, p12Password, alias, entryPassword)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), got)
			return nil
		},
	}
	cmd.Flags().StringVar(&p12Password, "p12-password", "", "contraseña del archivo PKCS#12")
	cmd.Flags().StringVar(&alias, "alias", "", "alias de la entrada (default: huella)")
	cmd.Flags().StringVar(&entryPassword, "entry-password", "", "contraseña de la entrada")
	_ = cmd.MarkFlagRequired("entry-password")
	return cmd
}

func newKeystoreInspectP12Command(_ *keystoreOptions) *cobra.Command {
	var p12Password string
	cmd := &cobra.Command{
		Use:   "inspect-p12 <archivo>",
		Short: "Mostrar el certificado de un PKCS#12 sin importarlo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, cert, err := keystore.DecodePKCS12(data, p12Password)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Subject:\t%s\n", cert.Subject.String())
			fmt.Fprintf(w, "Issuer:\t%s\n", cert.Issuer.String())
			fmt.Fprintf(w, "Serial:\t%s\n", cert.SerialNumber.String())
			fmt.Fprintf(w, "Not before:\t%s\n", cert.NotBefore.UTC().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "Not after:\t%s\n", cert.NotAfter.UTC().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(w, "Fingerprint:\t%s\n", keystore.Fingerprint(cert))
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&p12Password, "p12-password", "", "contraseña del archivo PKCS#12")
	return cmd
}
