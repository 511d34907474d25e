package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"pfm/internal/core"
	"pfm/internal/services"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("malformed JSON body")

// parseSelection reads year, month and category from the query string.
// A missing year or month defaults to today's; "all" selects everything.
func parseSelection(q url.Values, today core.Date) (core.Selection, error) {
	sel := core.Selection{Year: today.Year(), Month: int(today.Month())}

	if q.Has("year") {
		y, err := core.ParseYear(q.Get("year"))
		if err != nil {
			return core.Selection{}, err
		}
		sel.Year = y
	}
	if q.Has("month") {
		m, err := core.ParseMonth(q.Get("month"))
		if err != nil {
			return core.Selection{}, err
		}
		sel.Month = m
	}
	sel.Category = core.ParseCategory(q.Get("category"))
	return sel, sel.Validate()
}

// transactionRequest is the JSON body of a quick log or edit. Amount is
// accepted as a JSON string or number.
type transactionRequest struct {
	Date     string          `json:"date"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Amount   json.RawMessage `json:"amount"`
	Notes    string          `json:"notes"`
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// toQuickLog validates the raw fields and sanitizes the free text.
func (req transactionRequest) toQuickLog() (services.QuickLog, error) {
	var in services.QuickLog

	if s := strings.TrimSpace(req.Date); s != "" {
		d, err := core.ParseDate(s)
		if err != nil {
			return in, &core.ValidationError{Field: "date", Value: s, Err: err}
		}
		in.Date = d
	}

	raw := strings.TrimSpace(string(req.Amount))
	if unquoted, ok := strings.CutPrefix(raw, `"`); ok {
		raw = strings.TrimSuffix(unquoted, `"`)
	}
	amount, err := core.ParseAmount(raw)
	if err != nil {
		return in, err
	}

	in.Type = core.TxType(strings.TrimSpace(req.Type))
	in.Category = sanitizeText(req.Category)
	in.Amount = amount
	in.Notes = sanitizeText(req.Notes)
	return in, nil
}

// contentDisposition builds an attachment header for a generated file.
func contentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename=%q`, name)
}
