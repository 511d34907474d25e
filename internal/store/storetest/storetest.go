// Package storetest is a behavioural suite shared by every
// store.Replica implementation.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/core"
	"pfm/internal/store"
)

// Run exercises s, which must start empty.
func Run(t *testing.T, newStore func(t *testing.T) store.Replica) {
	t.Run("empty list", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("insert assigns unique ids", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		id1, err := s.Insert(ctx, payload("Rent", "600", 1))
		require.NoError(t, err)
		id2, err := s.Insert(ctx, payload("Rent", "600", 1))
		require.NoError(t, err)
		assert.NotEmpty(t, id1)
		assert.NotEqual(t, id1, id2)

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, id1, got[0].ID)
		assert.Equal(t, "Rent", got[0].Category)
		assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, core.NewDate(2025, time.June, 1), got[0].Date)
		assert.Equal(t, core.Expense, got[0].Type)
		assert.Equal(t, "note", got[0].Notes)
	})

	t.Run("round trip keeps exact amounts and empty notes", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		in := payload("Other", "12.345", 3)
		in.Notes = ""
		in.Type = core.Income
		id, err := s.Insert(ctx, in)
		require.NoError(t, err)
		require.NoError(t, s.InsertBulk(ctx, []core.NewTransaction{payload("Rent", "0.005", 4)}))

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, id, got[0].ID)
		assert.Equal(t, core.Income, got[0].Type)
		assert.Equal(t, in.Date, got[0].Date)
		assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("12.345")), got[0].Amount.String())
		assert.Equal(t, "", got[0].Notes)
		assert.True(t, got[1].Amount.Equal(decimal.RequireFromString("0.005")), got[1].Amount.String())
	})

	t.Run("insert rejects invalid payload", func(t *testing.T) {
		s := newStore(t)
		bad := payload("Rent", "-5", 1)
		_, err := s.Insert(context.Background(), bad)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("bulk insert", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		err := s.InsertBulk(ctx, []core.NewTransaction{
			payload("Rent", "600", 1),
			payload("Other", "25", 1),
			payload("Entertainment", "34.93", 1),
		})
		require.NoError(t, err)
		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("bulk insert is all or nothing on validation", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		err := s.InsertBulk(ctx, []core.NewTransaction{
			payload("Rent", "600", 1),
			payload("", "25", 1),
		})
		require.Error(t, err)
		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		keep, err := s.Insert(ctx, payload("Rent", "600", 1))
		require.NoError(t, err)
		drop, err := s.Insert(ctx, payload("Other", "5", 2))
		require.NoError(t, err)

		require.NoError(t, s.DeleteByID(ctx, drop))
		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, keep, got[0].ID)

		assert.ErrorIs(t, s.DeleteByID(ctx, drop), core.ErrNotFound)
	})

	t.Run("put upserts", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		tx := payload("Rent", "600", 1).WithID("fixed-id")
		require.NoError(t, s.Put(ctx, tx))
		tx.Amount = decimal.NewFromInt(650)
		require.NoError(t, s.Put(ctx, tx))

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "fixed-id", got[0].ID)
		assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(650)))
	})
}

func payload(category, amount string, day int) core.NewTransaction {
	return core.NewTransaction{
		Date:     core.NewDate(2025, time.June, day),
		Type:     core.Expense,
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Notes:    "note",
	}
}
