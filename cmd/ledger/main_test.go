package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/storage"
)

// setupCLI points every command at a fresh database and returns its path.
func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")
	t.Setenv("LEDGER_DATABASE_PATH", dbPath)
	t.Setenv("LEDGER_EVENTS_AMQP_URL", "")
	t.Setenv("LEDGER_LOGGING_LEVEL", "error")
	t.Setenv("HOME", dir)
	envFile = filepath.Join(dir, "missing.env")
	t.Cleanup(func() {
		envFile = ""
		viper.Reset()
	})
	return dbPath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func storedBalance(t *testing.T, dbPath string) string {
	t.Helper()
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	balance, err := store.GetBalance(context.Background())
	require.NoError(t, err)
	return balance.String()
}

func TestAdmitAndBalance(t *testing.T) {
	dbPath := setupCLI(t)

	out, err := runCLI(t, "admit", "Salary", "income", "1000", "Work")
	require.NoError(t, err)
	assert.Contains(t, out, "Admitted Salary")

	_, err = runCLI(t, "admit", "Laptop", "outcome", "1200", "Electronics")
	require.ErrorIs(t, err, common.ErrInsufficientBalance)

	_, err = runCLI(t, "admit", "Salary", "bonus", "1", "Work")
	require.ErrorIs(t, err, common.ErrValidation)

	out, err = runCLI(t, "balance", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "matches")

	assert.Equal(t, "1000", storedBalance(t, dbPath))
}

func TestImportCommand(t *testing.T) {
	dbPath := setupCLI(t)

	csvPath := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"title,type,value,category\n"+
			"Salary,income,1000,Work\n"+
			"Rent,outcome,400,Housing\n"+
			"Broken,outcome,,Housing\n"), 0o600))

	out, err := runCLI(t, "import", csvPath, "--balance-check", "running")
	require.NoError(t, err)
	assert.Contains(t, out, "line 4")
	assert.NoFileExists(t, csvPath)
	assert.Equal(t, "600", storedBalance(t, dbPath))

	out, err = runCLI(t, "transactions", "list", "--type", "outcome")
	require.NoError(t, err)
	assert.Contains(t, out, "Rent")
	assert.NotContains(t, out, "Salary")

	out, err = runCLI(t, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Housing")
	assert.Contains(t, out, "Work")

	_, err = runCLI(t, "import", csvPath, "--balance-check", "sometimes")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestImportCommandKeepsFileOnFailure(t *testing.T) {
	dbPath := setupCLI(t)

	csvPath := filepath.Join(t.TempDir(), "batch.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"title,type,value,category\n"+
			"Rent,outcome,400,Housing\n"), 0o600))

	_, err := runCLI(t, "import", csvPath, "--balance-check", "net")
	require.ErrorIs(t, err, common.ErrInsufficientBalance)
	assert.FileExists(t, csvPath)
	assert.Equal(t, "0", storedBalance(t, dbPath))
}

func TestImportCommandAppliesRules(t *testing.T) {
	setupCLI(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
import:
  rules:
    - pattern: "^uber"
      regex: true
      category: Transport
`), 0o600))

	csvPath := filepath.Join(dir, "batch.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"title,type,value,category\n"+
			"Salary,income,100,Work\n"+
			"Uber to airport,outcome,30,\n"), 0o600))

	_, err := runCLI(t, "--config", cfgPath, "import", csvPath)
	require.NoError(t, err)

	out, err := runCLI(t, "--config", cfgPath, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Transport")
}

func TestRemoveCommand(t *testing.T) {
	setupCLI(t)

	_, err := runCLI(t, "remove", "does-not-exist")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMigrateStatus(t *testing.T) {
	setupCLI(t)

	out, err := runCLI(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations pending")

	_, err = runCLI(t, "migrate")
	require.NoError(t, err)

	out, err = runCLI(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Up to date")
}

func TestVersion(t *testing.T) {
	setupCLI(t)

	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ledger dev")
}
