package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Expense TxType = "Expense"
	Income  TxType = "Income"
)

const (
	Variable Classification = iota
	Fixed
)

// All marks a year or month dimension of a Selection as unrestricted.
const All = 0

// AllCategories marks the category dimension of a Selection as unrestricted.
const AllCategories = ""

type (
	TxType string

	// Classification is derived on every computation and never persisted.
	Classification int

	Transaction struct {
		ID       string
		Date     Date
		Type     TxType
		Category string
		Amount   decimal.Decimal
		Notes    string
	}

	// NewTransaction is the insert payload; the store assigns the ID.
	NewTransaction struct {
		Date     Date
		Type     TxType
		Category string
		Amount   decimal.Decimal
		Notes    string
	}

	// FixedTemplate describes a recurring expected expense. The date is
	// supplied when the template is applied.
	FixedTemplate struct {
		Category string
		Amount   decimal.Decimal
		Note     string
	}

	// Budget is the process-wide configuration shared by the filter,
	// the classifier and the projection.
	Budget struct {
		MonthlyBudget decimal.Decimal
		Categories    []string
		Templates     []FixedTemplate
	}

	// Selection narrows a transaction set by year, month and category.
	// Zero values mean "All".
	Selection struct {
		Year     int
		Month    int
		Category string
	}
)

func (c Classification) String() string {
	if c == Fixed {
		return "fixed"
	}
	return "variable"
}

func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Valid reports whether the type is one the application writes.
func (t TxType) Valid() bool {
	return t == Expense || t == Income
}

// Validate checks the fields every store requires on write.
func (n NewTransaction) Validate() error {
	if err := n.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Value: n.Date.String(), Err: err}
	}
	if strings.TrimSpace(n.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if n.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Value: n.Amount.String(), Err: ErrInvalidAmount}
	}
	if !n.Type.Valid() {
		return &ValidationError{Field: "type", Value: string(n.Type), Err: ErrInvalidType}
	}
	return nil
}

// WithID materializes the payload as a stored transaction.
func (n NewTransaction) WithID(id string) Transaction {
	return Transaction{
		ID:       id,
		Date:     n.Date,
		Type:     n.Type,
		Category: n.Category,
		Amount:   n.Amount,
		Notes:    n.Notes,
	}
}

// Payload strips the identity from a stored transaction.
func (t Transaction) Payload() NewTransaction {
	return NewTransaction{
		Date:     t.Date,
		Type:     t.Type,
		Category: t.Category,
		Amount:   t.Amount,
		Notes:    t.Notes,
	}
}

// HasCategory reports whether name is one of the configured categories.
// An empty category list accepts everything.
func (b Budget) HasCategory(name string) bool {
	if len(b.Categories) == 0 {
		return true
	}
	for _, c := range b.Categories {
		if c == name {
			return true
		}
	}
	return false
}

// ParseCategory maps "All" in any case, or blank, to AllCategories.
func ParseCategory(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return AllCategories
	}
	return s
}

// ConcreteMonth reports whether both year and month are set.
func (s Selection) ConcreteMonth() bool {
	return s.Year != All && s.Month != All
}

// Validate rejects month indexes outside 1-12 and negative years.
func (s Selection) Validate() error {
	if s.Month < 0 || s.Month > 12 {
		return &ValidationError{Field: "month", Err: ErrInvalidMonth}
	}
	if s.Year < 0 || s.Year > 9999 {
		return &ValidationError{Field: "year", Err: ErrInvalidYear}
	}
	return nil
}
