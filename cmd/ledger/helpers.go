package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/cli"
	"github.com/Veraticus/spice-ledger/internal/events"
	"github.com/Veraticus/spice-ledger/internal/ledger"
	"github.com/Veraticus/spice-ledger/internal/pattern"
	"github.com/Veraticus/spice-ledger/internal/service"
	"github.com/Veraticus/spice-ledger/internal/source"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(appConfig.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// newPublisher connects to the configured broker, or returns a no-op
// publisher when none is configured.
func newPublisher() (events.Publisher, error) {
	if appConfig.Events.AMQPURL == "" {
		return events.Nop{}, nil
	}
	return events.NewAMQPPublisher(appConfig.Events.AMQPURL, appConfig.Events.Exchange)
}

// openLedger wires storage and events into a Ledger. The returned cleanup
// releases both and must always be called.
func openLedger(ctx context.Context) (*ledger.Ledger, func(), error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := newPublisher()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := publisher.Close(); err != nil {
			slog.Warn("Failed to close event publisher", "error", err)
		}
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}

	l, err := ledger.New(store, ledger.WithPublisher(publisher))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return l, cleanup, nil
}

// addImportFlags registers the flags shared by the import commands.
func addImportFlags(cmd *cobra.Command) {
	cmd.Flags().String("balance-check", "", "overdraft rule for the batch (none, net, running)")
	cmd.Flags().Bool("strict", false, "fail on the first malformed row instead of skipping it")
}

// importOptions merges the import config with command flags. Flags win when set.
func importOptions(cmd *cobra.Command) (ledger.ImportOptions, error) {
	opts := ledger.ImportOptions{
		BalanceCheck: ledger.BalanceCheck(appConfig.Import.BalanceCheck),
		Strict:       appConfig.Import.Strict,
		KeepSource:   appConfig.Import.KeepSource,
	}

	if f := cmd.Flags().Lookup("balance-check"); f != nil && f.Changed {
		opts.BalanceCheck = ledger.BalanceCheck(f.Value.String())
	}
	if f := cmd.Flags().Lookup("strict"); f != nil && f.Changed {
		opts.Strict, _ = cmd.Flags().GetBool("strict")
	}
	if f := cmd.Flags().Lookup("keep"); f != nil && f.Changed {
		opts.KeepSource, _ = cmd.Flags().GetBool("keep")
	}

	check, err := ledger.ParseBalanceCheck(string(opts.BalanceCheck))
	if err != nil {
		return opts, err
	}
	opts.BalanceCheck = check
	return opts, nil
}

// newCategorizer compiles the configured import rules. It returns nil when
// there are none.
func newCategorizer() (source.Categorizer, error) {
	if len(appConfig.Import.Rules) == 0 {
		return nil, nil
	}
	m, err := pattern.NewMatcher(appConfig.Import.Rules)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// importRetryOptions bounds retries of a batch that hit a locked database.
func importRetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts: appConfig.Import.RetryAttempts,
	}
}

func printImportResult(w io.Writer, result *ledger.ImportResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported:       %d\n", len(result.Transactions))
	fmt.Fprintf(&b, "New categories: %d\n", len(result.NewCategories))
	fmt.Fprintf(&b, "Skipped:        %d\n", len(result.Skipped))
	fmt.Fprintf(&b, "Balance:        %s", cli.FormatBalance(result.Balance))
	for _, s := range result.Skipped {
		fmt.Fprintf(&b, "\n  %s", cli.SubtleStyle.Render(fmt.Sprintf("line %d: %s", s.Line, s.Reason)))
	}

	fmt.Fprintln(w, cli.RenderBox("Import complete", b.String()))
}
