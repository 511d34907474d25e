package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/backend"
	"pfm/internal/config"
	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/services"
)

func TestBootstrapMemory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("AMQP_URL", "")
	t.Setenv("BUDGET_FILE", "")
	t.Setenv("LOG_LEVEL", "error")

	app, err := Bootstrap(context.Background(), Options{
		EnvFiles:   []string{filepath.Join(dir, "missing.env")},
		WithEvents: true,
		Clock:      core.FixedClock(core.NewDate(2025, time.June, 10)),
	})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, backend.Memory, app.Backend.Type)
	assert.Nil(t, app.Events)

	tx, err := app.Ledger.QuickLog(context.Background(), services.QuickLog{Category: "Rent", Amount: core.MinQuickLogAmount})
	require.NoError(t, err)
	got, err := app.Dashboard.Transactions(context.Background(), core.Selection{Year: 2025, Month: 6})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tx.ID, got[0].ID)
}

func TestBootstrapSQLiteWithBudgetFile(t *testing.T) {
	dir := t.TempDir()
	budgetPath := filepath.Join(dir, "budget.yaml")
	require.NoError(t, os.WriteFile(budgetPath, []byte(`
monthly_budget: "1500"
categories: [Rent, Food]
fixed_expenses:
  - {category: Rent, amount: "900", note: Flat}
`), 0o644))

	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "pfm.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("BUDGET_FILE", budgetPath)
	t.Setenv("LOG_LEVEL", "error")

	app, err := Bootstrap(context.Background(), Options{EnvFiles: []string{filepath.Join(dir, "none.env")}})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, backend.SQLite, app.Backend.Type)
	assert.Equal(t, []string{"Rent", "Food"}, app.Budget.Categories)
	assert.Equal(t, "1500", app.Budget.MonthlyBudget.String())
}

func TestBootstrapInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "postgres")
	t.Setenv("DATA_DIR", dir)
	_, err := Bootstrap(context.Background(), Options{EnvFiles: []string{filepath.Join(dir, "none.env")}})
	assert.Error(t, err)
}

func TestNewLoggerRejectsLevel(t *testing.T) {
	_, err := NewLogger(&config.Config{LogLevel: "loud"}, "")
	assert.Error(t, err)

	l, err := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentCLI)
	require.NoError(t, err)
	assert.Equal(t, log.ComponentCLI, l.Component())
}

func TestGracefulShutdownParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := GracefulShutdown(parent, log.Nop(), time.Second, nil)
	defer cancel()

	cancelParent()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}
