package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pfm/internal/amqp"
	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/store"
)

// EventPublisher announces committed writes. *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.TransactionEvent) error
}

// QuickLog is a single manually entered transaction. A zero Date means
// today, an empty Type means Expense.
type QuickLog struct {
	Date     core.Date
	Type     core.TxType
	Category string
	Amount   decimal.Decimal
	Notes    string
}

// BatchFailure names one id a batch operation could not process.
type BatchFailure struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

func (f BatchFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.ID, f.Err)
}

func (f BatchFailure) Unwrap() error { return f.Err }

// BatchResult reports every id of a batch delete, not just the first failure.
type BatchResult struct {
	Deleted []string       `json:"deleted"`
	Failed  []BatchFailure `json:"failed"`
}

// Err joins all failures, or returns nil.
func (r BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// LedgerService performs the write operations on the transaction store and
// publishes an event after each one that succeeds.
type LedgerService struct {
	store     store.TransactionStore
	budget    core.Budget
	publisher EventPublisher
	clock     core.Clock
	logger    *log.Logger
}

// NewLedgerService wires the write side. publisher may be nil, in which
// case events are skipped with a warning.
func NewLedgerService(s store.TransactionStore, budget core.Budget, publisher EventPublisher, clock core.Clock, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Nop()
	}
	return &LedgerService{
		store:     s,
		budget:    budget,
		publisher: publisher,
		clock:     clock,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// QuickLog validates and stores one transaction.
func (s *LedgerService) QuickLog(ctx context.Context, in QuickLog) (core.Transaction, error) {
	n, err := s.payload(in)
	if err != nil {
		return core.Transaction{}, err
	}
	if n.Amount.LessThan(core.MinQuickLogAmount) {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Value: n.Amount.String(), Err: core.ErrAmountTooSmall}
	}

	id, err := s.store.Insert(ctx, n)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction logged",
		log.NewFields().
			WithOperation(log.OpCreate).
			With(log.FieldTxID, id).
			With(log.FieldCategory, n.Category).
			With(log.FieldAmount, n.Amount.String()).
			ToSlice()...)

	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventCreated, id))
	return n.WithID(id), nil
}

// FixedExpenses materializes every template for sel: on the first of the
// selected month, or on today when the month is All. A year of All
// resolves to the current year.
func (s *LedgerService) FixedExpenses(sel core.Selection) []core.NewTransaction {
	date := s.clock.Today()
	if sel.Month != core.All {
		year := sel.Year
		if year == core.All {
			year = date.Year()
		}
		date = core.NewDate(year, time.Month(sel.Month), 1)
	}
	out := make([]core.NewTransaction, 0, len(s.budget.Templates))
	for _, tpl := range s.budget.Templates {
		out = append(out, core.NewTransaction{
			Date:     date,
			Type:     core.Expense,
			Category: tpl.Category,
			Amount:   tpl.Amount,
			Notes:    tpl.Note,
		})
	}
	return out
}

// LoadFixedExpenses bulk inserts FixedExpenses(sel). Loading twice for the
// same month inserts duplicates; there is no idempotency check.
func (s *LedgerService) LoadFixedExpenses(ctx context.Context, sel core.Selection) ([]core.NewTransaction, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	rows := s.FixedExpenses(sel)
	if len(rows) == 0 {
		return rows, nil
	}
	if err := s.store.InsertBulk(ctx, rows); err != nil {
		return nil, fmt.Errorf("load fixed expenses: %w", err)
	}
	s.logger.InfoContext(ctx, "Fixed expenses loaded",
		log.NewFields().
			WithOperation(log.OpLoadFixed).
			WithSelection(sel.Year, sel.Month, "").
			With(log.FieldCount, len(rows)).
			ToSlice()...)

	ev := amqp.NewTransactionEvent(amqp.EventCreated)
	ev.Count = len(rows)
	s.publish(ctx, ev)
	return rows, nil
}

// Delete removes one transaction.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTxID, id)
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventDeleted, id))
	return nil
}

// DeleteMany attempts every id; one failure does not stop the rest.
func (s *LedgerService) DeleteMany(ctx context.Context, ids []string) BatchResult {
	res := BatchResult{Deleted: []string{}, Failed: []BatchFailure{}}
	for _, id := range ids {
		if err := s.store.DeleteByID(ctx, id); err != nil {
			res.Failed = append(res.Failed, BatchFailure{ID: id, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	s.logger.InfoContext(ctx, "Batch delete finished",
		log.FieldOperation, log.OpDelete, "deleted", len(res.Deleted), "failed", len(res.Failed))
	if len(res.Deleted) > 0 {
		s.publish(ctx, amqp.NewTransactionEvent(amqp.EventDeleted, res.Deleted...))
	}
	return res
}

// Replace edits a transaction the only way the store allows: delete the
// old row, insert the new one. The new row gets a new id.
func (s *LedgerService) Replace(ctx context.Context, id string, in QuickLog) (core.Transaction, error) {
	n, err := s.payload(in)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return core.Transaction{}, err
	}
	newID, err := s.store.Insert(ctx, n)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("reinsert transaction %s: %w", id, err)
	}
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventDeleted, id))
	s.publish(ctx, amqp.NewTransactionEvent(amqp.EventCreated, newID))
	return n.WithID(newID), nil
}

func (s *LedgerService) payload(in QuickLog) (core.NewTransaction, error) {
	n := core.NewTransaction{
		Date:     in.Date,
		Type:     in.Type,
		Category: strings.TrimSpace(in.Category),
		Amount:   in.Amount,
		Notes:    strings.TrimSpace(in.Notes),
	}
	if n.Date.IsZero() {
		n.Date = s.clock.Today()
	}
	if n.Type == "" {
		n.Type = core.Expense
	}
	if err := n.Validate(); err != nil {
		return core.NewTransaction{}, err
	}
	if !s.budget.HasCategory(n.Category) {
		return core.NewTransaction{}, &core.ValidationError{Field: "category", Value: n.Category, Err: core.ErrUnknownCategory}
	}
	return n, nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.TransactionEvent) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "Event publisher not available, skipping event", "kind", ev.Kind)
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.NewFields().WithOperation(log.OpPublish).WithError(err).With("kind", ev.Kind).ToSlice()...)
	}
}
