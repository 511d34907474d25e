// Package analysis holds the pure computations behind every ledger view:
// selection filtering, fixed/variable classification, month-end
// projection and grouping. Nothing here performs I/O or logs.
package analysis

import "pfm/internal/core"

// Filter returns the transactions matching every non-All dimension of
// sel, in input order. The input slice is never modified.
func Filter(txs []core.Transaction, sel core.Selection) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if sel.Year != core.All && t.Date.Year() != sel.Year {
			continue
		}
		if sel.Month != core.All && int(t.Date.Month()) != sel.Month {
			continue
		}
		if sel.Category != core.AllCategories && t.Category != sel.Category {
			continue
		}
		out = append(out, t)
	}
	return out
}
