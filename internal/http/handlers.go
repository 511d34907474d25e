package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"pfm/internal/core"
	"pfm/internal/export"
	"pfm/internal/log"
)

type transactionJSON struct {
	ID       string `json:"id,omitempty"`
	Date     string `json:"date"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Notes    string `json:"notes"`
	Class    string `json:"class,omitempty"`
}

func toJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:       t.ID,
		Date:     t.Date.String(),
		Type:     string(t.Type),
		Category: t.Category,
		Amount:   t.Amount.StringFixed(2),
		Notes:    t.Notes,
	}
}

func toJSONList(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toJSON(t))
	}
	return out
}

type selectionJSON struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Category  string `json:"category"`
}

type dashboardJSON struct {
	Selection     selectionJSON         `json:"selection"`
	Today         core.Date             `json:"today"`
	Projection    core.Projection       `json:"projection"`
	MonthlyBudget decimal.Decimal       `json:"monthly_budget"`
	TotalExpenses decimal.Decimal       `json:"total_expenses"`
	TotalIncome   decimal.Decimal       `json:"total_income"`
	BudgetStatus  decimal.Decimal       `json:"budget_status"`
	OverBudget    bool                  `json:"over_budget"`
	Breakdown     []core.CategoryAmount `json:"breakdown"`
	Daily         []core.DateAmount     `json:"daily"`
	Top           []transactionJSON     `json:"top"`
	Entries       []transactionJSON     `json:"entries"`
}

type templateJSON struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady lists the store once to prove it is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}
	status, code := "ready", http.StatusOK
	if _, err := s.store.List(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	budget := s.dashboard.Budget()
	templates := make([]templateJSON, 0, len(budget.Templates))
	for _, t := range budget.Templates {
		templates = append(templates, templateJSON{Category: t.Category, Amount: t.Amount, Note: t.Note})
	}
	categories := budget.Categories
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"monthly_budget": budget.MonthlyBudget,
		"categories":     categories,
		"fixed_expenses": templates,
		"months":         core.MonthNames,
		"today":          s.dashboard.Today(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query(), s.dashboard.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	d, err := s.dashboard.Build(r.Context(), sel)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := dashboardJSON{
		Selection: selectionJSON{
			Year:      sel.Year,
			Month:     sel.Month,
			MonthName: core.MonthNames[sel.Month],
			Category:  sel.Category,
		},
		Today:         d.Today,
		Projection:    d.Projection,
		MonthlyBudget: d.MonthlyBudget,
		TotalExpenses: d.TotalExpenses,
		TotalIncome:   d.TotalIncome,
		BudgetStatus:  d.BudgetStatus,
		OverBudget:    d.OverBudget,
		Breakdown:     nonNil(d.Breakdown),
		Daily:         nonNil(d.Daily),
		Top:           toJSONList(d.Top),
		Entries:       make([]transactionJSON, 0, len(d.Entries)),
	}
	for _, e := range d.Entries {
		j := toJSON(e.Transaction)
		j.Class = e.Class.String()
		resp.Entries = append(resp.Entries, j)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query(), s.dashboard.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	txs, err := s.dashboard.Transactions(r.Context(), sel)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJSONList(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toQuickLog()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	t, err := s.ledger.QuickLog(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	newJSONResponse(toJSON(t)).
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Write(w)
}

// handleReplaceTransaction edits by delete and reinsert; the response
// carries the new id.
func (s *Server) handleReplaceTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.toQuickLog()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	t, err := s.ledger.Replace(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchFailureJSON struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeServiceError(w, r, &core.ValidationError{Field: "ids", Err: errors.New("at least one id is required")})
		return
	}

	res := s.ledger.DeleteMany(r.Context(), req.IDs)
	failed := make([]batchFailureJSON, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, batchFailureJSON{ID: f.ID, Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": res.Deleted,
		"failed":  failed,
	})
}

func (s *Server) handleLoadFixed(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query(), s.dashboard.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rows, err := s.ledger.LoadFixedExpenses(r.Context(), sel)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	out := make([]transactionJSON, 0, len(rows))
	for _, n := range rows {
		out = append(out, toJSON(n.WithID("")))
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"count":        len(rows),
		"transactions": out,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sel, err := parseSelection(r.URL.Query(), s.dashboard.Today())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	txs, err := s.dashboard.Transactions(r.Context(), sel)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", contentDisposition(export.FileName(sel)))
	if err := export.WriteCSV(w, txs); err != nil {
		// Headers are gone already; all that is left is to log.
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed", log.FieldError, err)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
