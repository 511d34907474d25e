package core

import "github.com/shopspring/decimal"

// ProjectionMode records which branch of the projection produced a result.
type ProjectionMode string

const (
	ModeCurrentMonth  ProjectionMode = "current_month"
	ModeCalendarMonth ProjectionMode = "calendar_month"
	ModeAggregate     ProjectionMode = "aggregate"
)

const (
	LabelDailyLivingAvg = "Daily Living Avg"
	LabelDailyAvg       = "Daily Avg"
	LabelTransactions   = "Transactions"
)

// Projection is the output of the projection engine. Fields that do not
// apply to Mode stay zero.
type Projection struct {
	Mode  ProjectionMode `json:"mode"`
	Label string         `json:"label"`

	DailyAvg          decimal.Decimal `json:"daily_avg"`
	ProjectedTotal    decimal.Decimal `json:"projected_total"`
	ProjectedVariable decimal.Decimal `json:"projected_variable"`

	FixedSoFar    decimal.Decimal `json:"fixed_so_far"`
	VariableSoFar decimal.Decimal `json:"variable_so_far"`
	FutureBooked  decimal.Decimal `json:"future_booked"`
	SpentToDate   decimal.Decimal `json:"spent_to_date"`
	TotalBooked   decimal.Decimal `json:"total_booked"`

	DaysPassed  int `json:"days_passed"`
	DaysInMonth int `json:"days_in_month"`
	Count       int `json:"count"`
}

type DateAmount struct {
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type CategoryAmount struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Entry is a transaction paired with its derived classification.
type Entry struct {
	Transaction
	Class Classification
}

// Dashboard is everything one view of the ledger needs, computed from a
// single store snapshot.
type Dashboard struct {
	Selection     Selection
	Today         Date
	Projection    Projection
	MonthlyBudget decimal.Decimal
	TotalExpenses decimal.Decimal
	TotalIncome   decimal.Decimal
	BudgetStatus  decimal.Decimal
	OverBudget    bool
	Breakdown     []CategoryAmount
	Daily         []DateAmount
	Top           []Transaction
	Entries       []Entry
}
