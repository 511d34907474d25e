// Package export serializes transaction lists to and from CSV using the
// same column layout as the hosted spreadsheet.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"pfm/internal/core"
)

// Row is the CSV shape of a transaction.
type Row struct {
	ID       string `csv:"id"`
	Date     string `csv:"date"`
	Type     string `csv:"type"`
	Category string `csv:"category"`
	Amount   string `csv:"amount"`
	Notes    string `csv:"notes"`
}

func ToRow(t core.Transaction) Row {
	return Row{
		ID:       t.ID,
		Date:     t.Date.String(),
		Type:     string(t.Type),
		Category: t.Category,
		Amount:   t.Amount.StringFixed(2),
		Notes:    t.Notes,
	}
}

// FromRow applies the read-path rules: the date must parse, a bad amount
// becomes 0.
func FromRow(r Row) (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, &core.DateError{Row: r.ID, Value: r.Date, Err: err}
	}
	return core.Transaction{
		ID:       strings.TrimSpace(r.ID),
		Date:     date,
		Type:     core.TxType(strings.TrimSpace(r.Type)),
		Category: r.Category,
		Amount:   core.CoerceAmount(r.Amount),
		Notes:    r.Notes,
	}, nil
}

// WriteCSV writes txs with a header line.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	rows := make([]*Row, 0, len(txs))
	for _, t := range txs {
		r := ToRow(t)
		rows = append(rows, &r)
	}
	cw := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV. An empty input yields no rows.
func ReadCSV(r io.Reader) ([]core.Transaction, error) {
	var rows []*Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := FromRow(*row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// FileName builds the download name for a selection, e.g.
// "finance_data_2025_June.csv" or "finance_data_All_All.csv".
func FileName(sel core.Selection) string {
	year := "All"
	if sel.Year != core.All {
		year = fmt.Sprintf("%d", sel.Year)
	}
	return fmt.Sprintf("finance_data_%s_%s.csv", year, core.MonthNames[sel.Month])
}
