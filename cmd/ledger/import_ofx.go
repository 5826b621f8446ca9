package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/source"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx <file>",
		Short: "Import a bank statement in OFX/QFX format",
		Long: `Import every entry of an OFX or QFX bank statement in one atomic step.

Debits become outcomes and credits become incomes. Interest, fees and ATM
withdrawals get their own categories. Every other entry is categorized by
the configured import rules, falling back to --category. The statement file
is never deleted.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportOFX,
	}

	addImportFlags(cmd)
	cmd.Flags().String("category", "Uncategorized", "category for entries without a type-specific one")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")

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
	ctx := handler.HandleInterrupts(cmd.Context(), "Nothing was imported.")
	defer handler.Stop()

	var result *ledger.ImportResult
	err = common.WithRetry(ctx, func() error {
		f, err := os.Open(args[0]) // #nosec G304 - path is supplied by the operator
		if err != nil {
			return fmt.Errorf("failed to open statement: %w", err)
		}
		defer func() { _ = f.Close() }()

		entries, err := source.NewOFXSource(ctx, f, "")
		if err != nil {
			return err
		}
		result, err = l.Import(ctx, source.WithCategories(entries, categorizer, category), opts)
		return err
	}, importRetryOptions())
	if err != nil {
		return err
	}

	printImportResult(cmd.OutOrStdout(), result)
	return nil
}
