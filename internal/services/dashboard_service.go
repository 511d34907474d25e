package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"pfm/internal/analysis"
	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/store"
)

// DefaultTopN is how many of the largest expenses a dashboard lists.
const DefaultTopN = 5

// DashboardService runs the read pipeline: one store snapshot, then
// filter, classify, project and aggregate over that same snapshot.
type DashboardService struct {
	store      store.TransactionStore
	budget     core.Budget
	classifier analysis.Classifier
	clock      core.Clock
	logger     *log.Logger
	topN       int
}

func NewDashboardService(s store.TransactionStore, budget core.Budget, clock core.Clock, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Nop()
	}
	return &DashboardService{
		store:      s,
		budget:     budget,
		classifier: analysis.TemplateClassifier{Templates: budget.Templates},
		clock:      clock,
		logger:     logger.WithComponent(log.ComponentDashboard),
		topN:       DefaultTopN,
	}
}

// Budget returns the configuration the service computes against.
func (s *DashboardService) Budget() core.Budget {
	return s.budget
}

// Today is the date the projection treats as "now".
func (s *DashboardService) Today() core.Date {
	return s.clock.Today()
}

// Transactions returns the filtered set, newest first.
func (s *DashboardService) Transactions(ctx context.Context, sel core.Selection) ([]core.Transaction, error) {
	filtered, err := s.snapshot(ctx, sel)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(filtered)
	return filtered, nil
}

// Build computes the complete dashboard for sel.
func (s *DashboardService) Build(ctx context.Context, sel core.Selection) (*core.Dashboard, error) {
	filtered, err := s.snapshot(ctx, sel)
	if err != nil {
		return nil, err
	}
	today := s.clock.Today()

	d := &core.Dashboard{
		Selection:     sel,
		Today:         today,
		Projection:    analysis.ProjectWith(filtered, s.classifier, today, sel),
		MonthlyBudget: s.budget.MonthlyBudget,
		TotalExpenses: decimal.Zero,
		TotalIncome:   decimal.Zero,
	}

	var expenses []core.Transaction
	for _, t := range filtered {
		switch t.Type {
		case core.Expense:
			expenses = append(expenses, t)
			d.TotalExpenses = d.TotalExpenses.Add(t.Amount)
		case core.Income:
			d.TotalIncome = d.TotalIncome.Add(t.Amount)
		}
	}
	d.BudgetStatus = s.budget.MonthlyBudget.Sub(d.TotalExpenses)

	// Only a running month has a projection to warn about.
	if d.Projection.Mode == core.ModeCurrentMonth {
		d.OverBudget = d.Projection.ProjectedTotal.GreaterThan(s.budget.MonthlyBudget)
	}

	d.Breakdown = analysis.CategoryBreakdown(expenses)
	d.Daily = analysis.GroupByDate(expenses)
	d.Top = analysis.TopN(expenses, s.topN)

	sortNewestFirst(filtered)
	d.Entries = make([]core.Entry, 0, len(filtered))
	for _, t := range filtered {
		d.Entries = append(d.Entries, core.Entry{Transaction: t, Class: s.classifier.Classify(t)})
	}

	s.logger.DebugContext(ctx, "Dashboard built",
		log.NewFields().
			WithSelection(sel.Year, sel.Month, sel.Category).
			With(log.FieldCount, len(filtered)).
			With("mode", string(d.Projection.Mode)).
			ToSlice()...)
	return d, nil
}

func (s *DashboardService) snapshot(ctx context.Context, sel core.Selection) ([]core.Transaction, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	all, err := s.store.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read transactions",
			log.NewFields().WithOperation(log.OpList).WithError(err).ToSlice()...)
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return analysis.Filter(all, sel), nil
}

// sortNewestFirst orders by date descending; same-day rows keep store order.
func sortNewestFirst(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}
