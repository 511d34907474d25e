package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"pfm/internal/core"
)

// GroupByCategory sums amounts per category.
func GroupByCategory(txs []core.Transaction) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, t := range txs {
		out[t.Category] = out[t.Category].Add(t.Amount)
	}
	return out
}

// GroupByDate sums amounts per date, oldest first.
func GroupByDate(txs []core.Transaction) []core.DateAmount {
	idx := make(map[core.Date]int)
	out := make([]core.DateAmount, 0)
	for _, t := range txs {
		i, ok := idx[t.Date]
		if !ok {
			i = len(out)
			idx[t.Date] = i
			out = append(out, core.DateAmount{Date: t.Date, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out
}

// TopN returns the n largest transactions by amount. Ties keep input order.
func TopN(txs []core.Transaction, n int) []core.Transaction {
	if n <= 0 {
		return []core.Transaction{}
	}
	sorted := make([]core.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Amount.GreaterThan(sorted[b].Amount)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// CategoryBreakdown is GroupByCategory as a slice, largest first, ties by name.
func CategoryBreakdown(txs []core.Transaction) []core.CategoryAmount {
	grouped := GroupByCategory(txs)
	out := make([]core.CategoryAmount, 0, len(grouped))
	for cat, amt := range grouped {
		out = append(out, core.CategoryAmount{Category: cat, Amount: amt})
	}
	sort.Slice(out, func(a, b int) bool {
		if c := out[a].Amount.Cmp(out[b].Amount); c != 0 {
			return c > 0
		}
		return out[a].Category < out[b].Category
	})
	return out
}
