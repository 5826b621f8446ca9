package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/Veraticus/spice-ledger/internal/certs"
	"github.com/Veraticus/spice-ledger/internal/ledger"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger over HTTP",
		Long: `Serve the ledger as a JSON API until interrupted.

Endpoints:
  POST   /transactions          record one transaction
  GET    /transactions          list transactions with the balance breakdown
  DELETE /transactions/{id}     remove a transaction
  POST   /transactions/import   import a CSV batch sent as multipart field "file"
  GET    /balance               income, outcome and total
  GET    /categories            every category`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	cmd.Flags().String("upload-dir", "", "directory for staged uploads (default from server.upload_dir)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.upload_dir", cmd.Flags().Lookup("upload-dir"))
	_ = viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	l, cleanup, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	check, err := ledger.ParseBalanceCheck(appConfig.Import.BalanceCheck)
	if err != nil {
		return err
	}
	handler := api.NewHandler(l, appConfig.Server.UploadDir, ledger.ImportOptions{
		BalanceCheck: check,
		Strict:       appConfig.Import.Strict,
	})

	categorizer, err := newCategorizer()
	if err != nil {
		return err
	}
	if categorizer != nil {
		handler.UseCategorizer(categorizer)
	}

	srv := api.NewServer(appConfig.Server.Addr, handler.Routes())
	if appConfig.Server.TLS {
		host, _, err := net.SplitHostPort(appConfig.Server.Addr)
		if err != nil {
			return fmt.Errorf("invalid server address: %w", err)
		}
		tlsConfig, err := certs.NewFileManager(appConfig.Server.CertDir, host).TLSConfig()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		srv.UseTLS(tlsConfig)
	}

	return srv.Run(ctx)
}
