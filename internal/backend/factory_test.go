package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/config"
	"pfm/internal/store/memory"
	"pfm/internal/store/sqlite"
)

func TestTypeIsValid(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, typ.IsValid(), typ.String())
	}
	assert.False(t, Type("postgres").IsValid())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	app := &config.Config{DataBackend: "sqlite", DataDir: "/tmp/x", SQLiteDBPath: "/tmp/x/pfm.db"}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLite, cfg.Type)
	assert.Equal(t, "/tmp/x/transactions.csv", cfg.SeedFile)

	_, err = FromAppConfig(&config.Config{DataBackend: "mongo"})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: Memory}, false},
		{"sqlite without path", Config{Type: SQLite}, true},
		{"sqlite", Config{Type: SQLite, SQLiteDBPath: "x.db"}, false},
		{"sheets without id", Config{Type: Sheets, GoogleServiceAccountFile: "sa.json"}, true},
		{"sheets without credentials", Config{Type: Sheets, GoogleSpreadsheetID: "abc"}, true},
		{"sheets", Config{Type: Sheets, GoogleSpreadsheetID: "abc", GoogleServiceAccountJSON: "{}"}, false},
		{"unknown", Config{Type: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateMemory(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(seed, []byte(
		"id,date,type,category,amount,notes\n1,2025-06-01,Expense,Rent,600.00,Fixed Rent\n"), 0o644))

	res, err := NewFactory(nil).Create(context.Background(), Config{Type: Memory, SeedFile: seed})
	require.NoError(t, err)
	defer res.Close()

	assert.IsType(t, &memory.Store{}, res.Store)
	all, err := res.Store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pfm.db")
	res, err := NewFactory(nil).Create(context.Background(), Config{Type: SQLite, SQLiteDBPath: path})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, res.Store)
	assert.NoError(t, res.Close())
}

func TestCreateRejectsInvalid(t *testing.T) {
	_, err := NewFactory(nil).Create(context.Background(), Config{Type: Sheets})
	assert.Error(t, err)
}

func TestResultCloseNil(t *testing.T) {
	var r *Result
	assert.NoError(t, r.Close())
	assert.NoError(t, (&Result{}).Close())
}
