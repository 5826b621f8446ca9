package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/source"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a CSV batch of transactions",
		Long: `Import every row of a CSV batch in one atomic step.

The file needs a header row followed by title,type,value,category columns.
Values follow the same format as 'ledger admit': "1000.50" and "1000,50"
are accepted, "1,000" and "1e3" are not. Rows with an empty title, type or
value, or a value that does not parse, are skipped. Categories that do not
exist yet are created together with the transactions. Either the whole
batch is committed or nothing is.

The file is deleted after a successful import unless --keep is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	addImportFlags(cmd)
	cmd.Flags().Bool("keep", false, "keep the CSV file after a successful import")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]

	opts, err := importOptions(cmd)
	if err != nil {
		return err
	}

	categorizer, err := newCategorizer()
	if err != nil {
		return err
	}

	l, cleanup, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Nothing was imported. The batch file is untouched.")
	defer handler.Stop()

	var result *ledger.ImportResult
	err = common.WithRetry(ctx, func() error {
		file, err := source.CSVFile(path)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()

		var src source.Source = cli.NewProgressSource(file, cmd.ErrOrStderr(), "Reading "+filepath.Base(path))
		if categorizer != nil {
			src = source.WithCategories(src, categorizer, "")
		}
		result, err = l.Import(ctx, src, opts)
		return err
	}, importRetryOptions())
	if err != nil {
		if handler.WasInterrupted() {
			return fmt.Errorf("import interrupted: %w", err)
		}
		return err
	}

	printImportResult(cmd.OutOrStdout(), result)
	return nil
}
