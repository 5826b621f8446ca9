package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "Inspect committed transactions",
	}

	cmd.AddCommand(listTransactionsCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := transactionFilter(cmd)
			if err != nil {
				return err
			}

			l, cleanup, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			txns, err := l.ListTransactions(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(txns) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render("No transactions found. Use 'ledger admit' or 'ledger import' to add some."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

			// Header
			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("Date"),
				headerStyle.Render("Title"),
				headerStyle.Render("Category"),
				headerStyle.Render("Value"),
				headerStyle.Render("ID"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 10),
				strings.Repeat("-", 20),
				strings.Repeat("-", 12),
				strings.Repeat("-", 10),
				strings.Repeat("-", 36))

			for i := range txns {
				txn := &txns[i]
				category := txn.CategoryTitle
				if category == "" {
					category = cli.SubtleStyle.Render("(none)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					txn.CreatedAt.Format("2006-01-02"),
					txn.Title,
					category,
					cli.FormatAmount(txn),
					txn.ID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("category-id", "", "only list transactions in this category")
	cmd.Flags().String("type", "", "only list income or outcome")
	cmd.Flags().Int("limit", 50, "maximum number of transactions (0 for all)")
	cmd.Flags().Int("offset", 0, "number of transactions to skip")

	return cmd
}

func transactionFilter(cmd *cobra.Command) (service.TransactionFilter, error) {
	categoryID, _ := cmd.Flags().GetString("category-id")
	typ, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	filter := service.TransactionFilter{CategoryID: categoryID, Limit: limit, Offset: offset}
	if typ != "" {
		t, err := model.ParseTransactionType(typ)
		if err != nil {
			return filter, err
		}
		filter.Type = t
	}
	if limit < 0 || offset < 0 {
		return filter, fmt.Errorf("limit and offset must not be negative")
	}
	return filter, nil
}
