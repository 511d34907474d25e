package google

import (
	"fmt"
	"strings"

	"pfm/internal/core"
)

const (
	colID = iota
	colDate
	colType
	colCategory
	colAmount
	colNotes
)

var header = []any{"id", "date", "type", "category", "amount", "notes"}

// parseRows converts a sheet value matrix, skipping a header row and
// blank rows. Amounts are lenient, dates are not.
func parseRows(values [][]any) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(values))
	for i, row := range values {
		id := cell(row, colID)
		if i == 0 && strings.EqualFold(id, "id") {
			continue
		}
		if id == "" && cell(row, colDate) == "" {
			continue
		}
		raw := cell(row, colDate)
		date, err := core.ParseDate(raw)
		if err != nil {
			ref := id
			if ref == "" {
				ref = fmt.Sprintf("#%d", i+1)
			}
			return nil, &core.DateError{Row: ref, Value: raw, Err: err}
		}
		out = append(out, core.Transaction{
			ID:       id,
			Date:     date,
			Type:     core.TxType(cell(row, colType)),
			Category: cell(row, colCategory),
			Amount:   core.CoerceAmount(cell(row, colAmount)),
			Notes:    cell(row, colNotes),
		})
	}
	return out, nil
}

// rowIndexOf returns the zero-based row holding id, or -1.
func rowIndexOf(values [][]any, id string) int {
	if id == "" {
		return -1
	}
	for i, row := range values {
		if cell(row, colID) == id {
			return i
		}
	}
	return -1
}

func toRow(t core.Transaction) []any {
	return []any{t.ID, t.Date.String(), string(t.Type), t.Category, t.Amount.String(), t.Notes}
}

func cell(row []any, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}
