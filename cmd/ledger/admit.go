package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/ledger"
)

func admitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admit <title> <income|outcome> <value> <category>",
		Short: "Record a single transaction",
		Long: `Record one income or outcome. The category is created when it does not
exist yet. An outcome larger than the current balance is rejected.

Values are plain digits with an optional decimal part after a dot or a
comma, at most 18 integer digits and 8 decimals. Thousands separators and
exponents are rejected, and so is a comma followed by exactly three digits
("1,000") since it reads either way.`,
		Example: `  ledger admit Salary income 1000 Work
  ledger admit "Weekly groceries" outcome 82,40 Food`,
		Args: cobra.ExactArgs(4),
		RunE: runAdmit,
	}
}

func runAdmit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req, err := ledger.ParseAdmitRequest(args[0], args[1], args[2], args[3])
	if err != nil {
		return err
	}

	l, cleanup, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	txn, err := l.Admit(ctx, req)
	if err != nil {
		return err
	}

	balance, err := l.CurrentBalance(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Admitted %s %s (%s)", txn.Title, cli.FormatAmount(txn), txn.ID)))
	fmt.Fprintf(out, "Balance: %s\n", cli.FormatBalance(balance))
	return nil
}
