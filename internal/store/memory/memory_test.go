package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/core"
	"pfm/internal/store"
	"pfm/internal/store/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Replica { return New() })
}

func TestNewFromFileMissing(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	got, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewFromFileSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	content := "id,date,type,category,amount,notes\n" +
		"a1,2025-06-01,Expense,Rent,600,Fixed Rent\n" +
		"a2,2025-06-03,Expense,Dine & Grocery,oops,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := NewFromFile(path)
	require.NoError(t, err)
	got, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a1", got[0].ID)
	assert.True(t, got[1].Amount.IsZero())
}

func TestNewFromFileBadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	content := "id,date,type,category,amount,notes\na1,June 1st,Expense,Rent,600,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewFromFile(path)
	assert.Error(t, err)
}

func TestListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Insert(ctx, sampleTx())
	require.NoError(t, err)

	got, err := s.List(ctx)
	require.NoError(t, err)
	got[0].Category = "mutated"

	again, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rent", again[0].Category)
}

func sampleTx() core.NewTransaction {
	return core.NewTransaction{
		Date:     core.NewDate(2025, time.June, 1),
		Type:     core.Expense,
		Category: "Rent",
		Amount:   decimal.NewFromInt(600),
	}
}
