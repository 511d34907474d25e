package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/amqp"
	"pfm/internal/config"
	"pfm/internal/core"
	"pfm/internal/store/memory"
)

type recordingPublisher struct {
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *amqp.TransactionEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

var today = core.NewDate(2025, time.June, 10)

func newLedger(t *testing.T, pub EventPublisher) (*LedgerService, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewLedgerService(st, config.DefaultBudget(), pub, core.FixedClock(today), nil), st
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestQuickLog(t *testing.T) {
	pub := &recordingPublisher{}
	ledger, st := newLedger(t, pub)
	ctx := context.Background()

	tx, err := ledger.QuickLog(ctx, QuickLog{Category: "Dine & Grocery", Amount: dec("12.40"), Notes: "  lunch "})
	require.NoError(t, err)
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, today, tx.Date)
	assert.Equal(t, core.Expense, tx.Type)
	assert.Equal(t, "lunch", tx.Notes)

	all, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventCreated, pub.events[0].Kind)
	assert.Equal(t, []string{tx.ID}, pub.events[0].IDs)
}

func TestQuickLogRejects(t *testing.T) {
	ledger, st := newLedger(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   QuickLog
		want error
	}{
		{"below minimum", QuickLog{Category: "Other", Amount: dec("0.009")}, core.ErrAmountTooSmall},
		{"zero", QuickLog{Category: "Other", Amount: decimal.Zero}, core.ErrAmountTooSmall},
		{"negative", QuickLog{Category: "Other", Amount: dec("-3")}, core.ErrInvalidAmount},
		{"unknown category", QuickLog{Category: "Yachts", Amount: dec("3")}, core.ErrUnknownCategory},
		{"empty category", QuickLog{Amount: dec("3")}, core.ErrEmptyCategory},
		{"bad type", QuickLog{Category: "Other", Type: "Transfer", Amount: dec("3")}, core.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.QuickLog(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, core.IsValidation(err))
		})
	}
	all, _ := st.List(ctx)
	assert.Empty(t, all)
}

func TestQuickLogPublishFailureDoesNotFail(t *testing.T) {
	ledger, _ := newLedger(t, &recordingPublisher{err: errors.New("broker down")})
	_, err := ledger.QuickLog(context.Background(), QuickLog{Category: "Other", Amount: dec("1")})
	assert.NoError(t, err)
}

func TestFixedExpensesDates(t *testing.T) {
	ledger, _ := newLedger(t, nil)

	rows := ledger.FixedExpenses(core.Selection{Year: 2025, Month: 3})
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, core.NewDate(2025, time.March, 1), r.Date)
		assert.Equal(t, core.Expense, r.Type)
	}
	assert.Equal(t, "Fixed Rent", rows[0].Notes)

	rows = ledger.FixedExpenses(core.Selection{Year: 2025})
	assert.Equal(t, today, rows[0].Date)

	rows = ledger.FixedExpenses(core.Selection{Month: 2})
	assert.Equal(t, core.NewDate(2025, time.February, 1), rows[0].Date)
}

func TestLoadFixedExpenses(t *testing.T) {
	pub := &recordingPublisher{}
	ledger, st := newLedger(t, pub)
	ctx := context.Background()

	rows, err := ledger.LoadFixedExpenses(ctx, core.Selection{Year: 2025, Month: 6})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	all, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Len(t, pub.events, 1)
	assert.Equal(t, 3, pub.events[0].Count)

	_, err = ledger.LoadFixedExpenses(ctx, core.Selection{Year: 2025, Month: 13})
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
}

func TestDeleteMany(t *testing.T) {
	pub := &recordingPublisher{}
	ledger, st := newLedger(t, pub)
	ctx := context.Background()

	a, err := ledger.QuickLog(ctx, QuickLog{Category: "Other", Amount: dec("1")})
	require.NoError(t, err)
	b, err := ledger.QuickLog(ctx, QuickLog{Category: "Other", Amount: dec("2")})
	require.NoError(t, err)

	res := ledger.DeleteMany(ctx, []string{a.ID, "missing", b.ID})
	assert.Equal(t, []string{a.ID, b.ID}, res.Deleted)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "missing", res.Failed[0].ID)
	assert.ErrorIs(t, res.Err(), core.ErrNotFound)

	all, _ := st.List(ctx)
	assert.Empty(t, all)
	last := pub.events[len(pub.events)-1]
	assert.Equal(t, amqp.EventDeleted, last.Kind)
	assert.Equal(t, 2, last.Count)

	assert.NoError(t, BatchResult{}.Err())
}

func TestDeleteMissing(t *testing.T) {
	ledger, _ := newLedger(t, nil)
	assert.ErrorIs(t, ledger.Delete(context.Background(), "nope"), core.ErrNotFound)
}

func TestReplace(t *testing.T) {
	ledger, st := newLedger(t, nil)
	ctx := context.Background()

	old, err := ledger.QuickLog(ctx, QuickLog{Category: "Other", Amount: dec("25")})
	require.NoError(t, err)

	updated, err := ledger.Replace(ctx, old.ID, QuickLog{Category: "Other", Amount: dec("26"), Date: old.Date})
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, updated.ID)

	all, _ := st.List(ctx)
	require.Len(t, all, 1)
	assert.True(t, all[0].Amount.Equal(dec("26")))

	_, err = ledger.Replace(ctx, "gone", QuickLog{Category: "Other", Amount: dec("1")})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func seedDashboard(t *testing.T) *DashboardService {
	t.Helper()
	st := memory.New(
		core.Transaction{ID: "1", Date: core.NewDate(2025, time.June, 1), Type: core.Expense, Category: "Rent", Amount: dec("600")},
		core.Transaction{ID: "2", Date: core.NewDate(2025, time.June, 4), Type: core.Expense, Category: "Dine & Grocery", Amount: dec("30")},
		core.Transaction{ID: "3", Date: core.NewDate(2025, time.June, 10), Type: core.Expense, Category: "Transport", Amount: dec("20")},
		core.Transaction{ID: "4", Date: core.NewDate(2025, time.June, 20), Type: core.Expense, Category: "Shopping", Amount: dec("100")},
		core.Transaction{ID: "5", Date: core.NewDate(2025, time.June, 5), Type: core.Income, Category: "Other", Amount: dec("3000")},
		core.Transaction{ID: "6", Date: core.NewDate(2025, time.May, 2), Type: core.Expense, Category: "Rent", Amount: dec("600")},
	)
	return NewDashboardService(st, config.DefaultBudget(), core.FixedClock(today), nil)
}

func TestDashboardCurrentMonth(t *testing.T) {
	d, err := seedDashboard(t).Build(context.Background(), core.Selection{Year: 2025, Month: 6})
	require.NoError(t, err)

	p := d.Projection
	assert.Equal(t, core.ModeCurrentMonth, p.Mode)
	assert.True(t, p.FixedSoFar.Equal(dec("600")))
	assert.True(t, p.VariableSoFar.Equal(dec("3050")), p.VariableSoFar.String())
	assert.True(t, p.FutureBooked.Equal(dec("100")))

	assert.True(t, d.TotalExpenses.Equal(dec("750")))
	assert.True(t, d.TotalIncome.Equal(dec("3000")))
	assert.True(t, d.BudgetStatus.Equal(dec("1250")))
	assert.True(t, d.OverBudget, "projected total exceeds the budget")

	require.NotEmpty(t, d.Breakdown)
	assert.Equal(t, "Rent", d.Breakdown[0].Category)
	for _, b := range d.Breakdown {
		assert.NotEqual(t, "Other", b.Category, "income is not spending")
	}
	assert.Len(t, d.Daily, 4)
	assert.Equal(t, "1", d.Top[0].ID)

	require.Len(t, d.Entries, 5)
	assert.Equal(t, "4", d.Entries[0].ID)
	assert.Equal(t, "1", d.Entries[4].ID)
	assert.Equal(t, core.Fixed, d.Entries[4].Class)
}

func TestDashboardPastMonthAndAggregate(t *testing.T) {
	svc := seedDashboard(t)
	ctx := context.Background()

	d, err := svc.Build(ctx, core.Selection{Year: 2025, Month: 5})
	require.NoError(t, err)
	assert.Equal(t, core.ModeCalendarMonth, d.Projection.Mode)
	assert.True(t, d.Projection.DailyAvg.Equal(dec("600").Div(dec("31"))))
	assert.False(t, d.OverBudget)

	d, err = svc.Build(ctx, core.Selection{})
	require.NoError(t, err)
	assert.Equal(t, core.ModeAggregate, d.Projection.Mode)
	assert.Equal(t, 6, d.Projection.Count)
	assert.False(t, d.OverBudget)
}

func TestDashboardOverBudgetOnlyForRunningMonth(t *testing.T) {
	st := memory.New(
		core.Transaction{ID: "may", Date: core.NewDate(2025, time.May, 3), Type: core.Expense, Category: "Shopping", Amount: dec("5000")},
		core.Transaction{ID: "jun", Date: core.NewDate(2025, time.June, 3), Type: core.Expense, Category: "Shopping", Amount: dec("5000")},
	)
	svc := NewDashboardService(st, config.DefaultBudget(), core.FixedClock(today), nil)
	ctx := context.Background()

	d, err := svc.Build(ctx, core.Selection{Year: 2025, Month: 5})
	require.NoError(t, err)
	assert.Equal(t, core.ModeCalendarMonth, d.Projection.Mode)
	assert.True(t, d.BudgetStatus.IsNegative())
	assert.False(t, d.OverBudget)

	d, err = svc.Build(ctx, core.Selection{Year: 2025, Month: 6})
	require.NoError(t, err)
	assert.Equal(t, core.ModeCurrentMonth, d.Projection.Mode)
	assert.True(t, d.OverBudget)
}

func TestDashboardEmpty(t *testing.T) {
	svc := NewDashboardService(memory.New(), config.DefaultBudget(), core.FixedClock(today), nil)
	d, err := svc.Build(context.Background(), core.Selection{Year: 2025, Month: 6, Category: "Rent"})
	require.NoError(t, err)
	assert.True(t, d.Projection.ProjectedTotal.IsZero())
	assert.True(t, d.BudgetStatus.Equal(dec("2000")))
	assert.Empty(t, d.Breakdown)
	assert.Empty(t, d.Entries)
}

type brokenStore struct{ memory.Store }

func (*brokenStore) List(context.Context) ([]core.Transaction, error) {
	return nil, core.ErrStoreUnavailable
}

func TestDashboardStoreUnavailable(t *testing.T) {
	svc := NewDashboardService(&brokenStore{}, config.DefaultBudget(), core.FixedClock(today), nil)
	_, err := svc.Build(context.Background(), core.Selection{})
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)
}

func TestTransactionsNewestFirst(t *testing.T) {
	got, err := seedDashboard(t).Transactions(context.Background(), core.Selection{Category: "Rent"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "6", got[1].ID)
}
