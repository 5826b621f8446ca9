package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/common"
)

func balanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the current balance",
		Long: `Show income, outcome and the running balance.

--verify recomputes the balance from every transaction and fails when the
stored running total disagrees. --recompute repairs such a disagreement.`,
		Args: cobra.NoArgs,
		RunE: runBalance,
	}

	cmd.Flags().Bool("verify", false, "check the running balance against the transactions")
	cmd.Flags().Bool("recompute", false, "rewrite the running balance from the transactions")

	return cmd
}

func runBalance(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	verify, _ := cmd.Flags().GetBool("verify")
	recompute, _ := cmd.Flags().GetBool("recompute")

	l, cleanup, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()

	if recompute {
		total, err := l.RecomputeBalance(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Balance recomputed: "+total.StringFixed(2)))
	}

	if verify {
		if _, err := l.VerifyBalance(ctx); err != nil {
			if errors.Is(err, common.ErrBalanceDrift) {
				fmt.Fprintln(out, cli.FormatError("Running balance does not match the transactions"))
				fmt.Fprintln(out, cli.FormatInfo("Run 'ledger balance --recompute' to repair it."))
			}
			return err
		}
		fmt.Fprintln(out, cli.FormatSuccess("Running balance matches the transactions"))
	}

	summary, err := l.Summary(ctx)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("Income:  %s\nOutcome: %s\nBalance: %s",
		cli.IncomeStyle.Render(summary.Income.StringFixed(2)),
		cli.OutcomeStyle.Render(summary.Outcome.StringFixed(2)),
		cli.FormatBalance(summary.Total))
	fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Balance", content))
	return nil
}
