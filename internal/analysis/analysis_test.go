package analysis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) core.Date { return core.NewDate(y, m, dd) }

func tx(id string, date core.Date, cat, amount string) core.Transaction {
	return core.Transaction{ID: id, Date: date, Type: core.Expense, Category: cat, Amount: d(amount)}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s got %s", want, got.String()}, msgAndArgs...)...)
}

var defaultTemplates = []core.FixedTemplate{
	{Category: "Rent", Amount: d("600"), Note: "Fixed Rent"},
	{Category: "Other", Amount: d("25"), Note: "US Mobile"},
	{Category: "Entertainment", Amount: d("34.93"), Note: "Subscription"},
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx("1", day(2025, time.May, 1), "Rent", "600"),
		tx("2", day(2025, time.May, 3), "Dine & Grocery", "42.10"),
		tx("3", day(2025, time.June, 1), "Rent", "600"),
		tx("4", day(2024, time.May, 20), "Transport", "12"),
		tx("5", day(2025, time.May, 20), "Dine & Grocery", "8.40"),
	}
}

func ids(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, t := range txs {
		out = append(out, t.ID)
	}
	return out
}

func TestFilterAllIsIdentity(t *testing.T) {
	in := sample()
	got := Filter(in, core.Selection{})
	assert.Equal(t, in, got)

	got[0].Category = "changed"
	assert.Equal(t, "Rent", in[0].Category, "filter must return a copy")
}

func TestFilterConjunctive(t *testing.T) {
	tests := []struct {
		name string
		sel  core.Selection
		want []string
	}{
		{"year only", core.Selection{Year: 2025}, []string{"1", "2", "3", "5"}},
		{"month only", core.Selection{Month: 5}, []string{"1", "2", "4", "5"}},
		{"category only", core.Selection{Category: "Rent"}, []string{"1", "3"}},
		{"year and month", core.Selection{Year: 2025, Month: 5}, []string{"1", "2", "5"}},
		{"all three", core.Selection{Year: 2025, Month: 5, Category: "Dine & Grocery"}, []string{"2", "5"}},
		{"no match", core.Selection{Year: 2030}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sample(), tt.sel)))
		})
	}
}

func TestFilterEmpty(t *testing.T) {
	assert.Empty(t, Filter(nil, core.Selection{Year: 2025, Month: 1}))
}

func TestClassify(t *testing.T) {
	date := day(2025, time.May, 1)
	tests := []struct {
		name     string
		category string
		amount   string
		want     core.Classification
	}{
		{"exact rent", "Rent", "600", core.Fixed},
		{"rent within tolerance", "Rent", "600.009", core.Fixed},
		{"rent at tolerance", "Rent", "600.01", core.Variable},
		{"subscription exact", "Entertainment", "34.93", core.Fixed},
		{"subscription one cent off", "Entertainment", "34.94", core.Variable},
		{"amount matches other category", "Shopping", "600", core.Variable},
		{"different amount same category", "Rent", "550", core.Variable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tx("x", date, tt.category, tt.amount), defaultTemplates)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	tr := tx("x", day(2025, time.May, 1), "Other", "25")
	first := Classify(tr, defaultTemplates)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(tr, defaultTemplates))
	}
	assert.Equal(t, core.Variable, Classify(tr, nil))
}

func TestClassifyTemplateDrift(t *testing.T) {
	old := tx("x", day(2024, time.January, 1), "Rent", "600")
	raised := []core.FixedTemplate{{Category: "Rent", Amount: d("650"), Note: "Fixed Rent"}}
	assert.Equal(t, core.Fixed, Classify(old, defaultTemplates))
	assert.Equal(t, core.Variable, Classify(old, raised))
}

func TestPartitionPreservesEverything(t *testing.T) {
	txs := sample()
	fixed, variable := Partition(txs, TemplateClassifier{Templates: defaultTemplates})
	assert.Equal(t, []string{"1", "3"}, ids(fixed))
	assert.Equal(t, []string{"2", "4", "5"}, ids(variable))
	assertDec(t, core.Sum(txs).String(), core.Sum(fixed).Add(core.Sum(variable)))
}

func TestProjectCurrentMonthScenario(t *testing.T) {
	today := day(2025, time.June, 10)
	txs := []core.Transaction{
		tx("1", day(2025, time.June, 10), "Rent", "600"),
		tx("2", day(2025, time.June, 10), "Food", "50"),
	}
	templates := []core.FixedTemplate{{Category: "Rent", Amount: d("600"), Note: "Fixed Rent"}}

	p := Project(txs, templates, today, core.Selection{Year: 2025, Month: 6})

	assert.Equal(t, core.ModeCurrentMonth, p.Mode)
	assert.Equal(t, core.LabelDailyLivingAvg, p.Label)
	assert.Equal(t, 30, p.DaysInMonth)
	assert.Equal(t, 10, p.DaysPassed)
	assertDec(t, "600", p.FixedSoFar)
	assertDec(t, "50", p.VariableSoFar)
	assertDec(t, "5", p.DailyAvg)
	assertDec(t, "150", p.ProjectedVariable)
	assertDec(t, "750", p.ProjectedTotal)
	assertDec(t, "650", p.SpentToDate)
	assertDec(t, "650", p.TotalBooked)
}

func TestProjectCurrentMonthFutureBooked(t *testing.T) {
	today := day(2025, time.June, 15)
	txs := []core.Transaction{
		tx("1", day(2025, time.June, 1), "Rent", "600"),
		tx("2", day(2025, time.June, 5), "Dine & Grocery", "30"),
		tx("3", day(2025, time.June, 15), "Transport", "15"),
		tx("4", day(2025, time.June, 16), "Travel", "400"),
		tx("5", day(2025, time.June, 30), "Entertainment", "34.93"),
	}

	p := Project(txs, defaultTemplates, today, core.Selection{Year: 2025, Month: 6})

	assertDec(t, "600", p.FixedSoFar)
	assertDec(t, "45", p.VariableSoFar)
	assertDec(t, "434.93", p.FutureBooked)
	assertDec(t, "645", p.SpentToDate)
	assertDec(t, "1079.93", p.TotalBooked)
	assertDec(t, "3", p.DailyAvg)
	assertDec(t, "90", p.ProjectedVariable)
	assertDec(t, "1124.93", p.ProjectedTotal)

	assert.True(t, p.SpentToDate.Add(p.FutureBooked).Equal(p.TotalBooked))
	assert.True(t, p.FixedSoFar.Add(p.VariableSoFar).Equal(p.SpentToDate))
}

func TestProjectCurrentMonthInvariants(t *testing.T) {
	today := day(2024, time.February, 12)
	sel := core.Selection{Year: 2024, Month: 2}
	sets := [][]core.Transaction{
		nil,
		{tx("a", day(2024, time.February, 29), "Travel", "10.10")},
		{
			tx("a", day(2024, time.February, 1), "Rent", "600"),
			tx("b", day(2024, time.February, 12), "Other", "25"),
			tx("c", day(2024, time.February, 11), "Other", "3.33"),
			tx("d", day(2024, time.February, 13), "Medical", "70"),
		},
	}
	for i, txs := range sets {
		p := Project(txs, defaultTemplates, today, sel)
		assert.Equal(t, 29, p.DaysInMonth)
		assert.True(t, p.SpentToDate.Add(p.FutureBooked).Equal(p.TotalBooked), "set %d", i)
		assert.True(t, p.FixedSoFar.Add(p.VariableSoFar).Equal(p.SpentToDate), "set %d", i)
	}
}

func TestProjectCalendarMonth(t *testing.T) {
	today := day(2025, time.June, 10)
	txs := []core.Transaction{
		tx("1", day(2025, time.April, 1), "Rent", "600"),
		tx("2", day(2025, time.April, 9), "Shopping", "300"),
	}

	p := Project(txs, defaultTemplates, today, core.Selection{Year: 2025, Month: 4})

	assert.Equal(t, core.ModeCalendarMonth, p.Mode)
	assert.Equal(t, core.LabelDailyAvg, p.Label)
	assert.Equal(t, 30, p.DaysInMonth)
	assertDec(t, "30", p.DailyAvg)
	assertDec(t, "900", p.SpentToDate)
	assertDec(t, "900", p.TotalBooked)
	assert.True(t, p.ProjectedTotal.IsZero())
}

func TestProjectSameMonthOtherYearIsCalendar(t *testing.T) {
	today := day(2025, time.June, 10)
	p := Project(nil, defaultTemplates, today, core.Selection{Year: 2024, Month: 6})
	assert.Equal(t, core.ModeCalendarMonth, p.Mode)
}

func TestProjectAggregate(t *testing.T) {
	today := day(2025, time.June, 10)
	for _, sel := range []core.Selection{{}, {Year: 2025}, {Month: 6}, {Category: "Rent"}} {
		txs := Filter(sample(), sel)
		p := Project(txs, defaultTemplates, today, sel)
		assert.Equal(t, core.ModeAggregate, p.Mode)
		assert.Equal(t, core.LabelTransactions, p.Label)
		assert.Equal(t, len(txs), p.Count)
		assert.True(t, p.SpentToDate.Equal(p.TotalBooked))
		assert.True(t, p.DailyAvg.IsZero())
	}
}

func TestProjectEmpty(t *testing.T) {
	today := day(2025, time.June, 10)
	for _, sel := range []core.Selection{{}, {Year: 2025, Month: 6}, {Year: 2025, Month: 1}, {Year: 2025, Month: 6, Category: "Rent"}} {
		p := Project(nil, defaultTemplates, today, sel)
		for _, v := range []decimal.Decimal{p.DailyAvg, p.ProjectedTotal, p.ProjectedVariable, p.FixedSoFar, p.VariableSoFar, p.FutureBooked, p.SpentToDate, p.TotalBooked} {
			assert.True(t, v.IsZero())
		}
		assert.Zero(t, p.Count)
	}
	assert.Empty(t, GroupByCategory(nil))
	assert.Empty(t, GroupByDate(nil))
	assert.Empty(t, TopN(nil, 3))
	assert.Empty(t, CategoryBreakdown(nil))
}

func TestDailyAverageZeroDays(t *testing.T) {
	assert.True(t, dailyAverage(d("50"), 0).IsZero())
	assert.True(t, projectVariable(d("50"), 0, 30).IsZero())
	assertDec(t, "5", dailyAverage(d("50"), 10))
}

type fixedEverything struct{}

func (fixedEverything) Classify(core.Transaction) core.Classification { return core.Fixed }

func TestProjectWithCustomClassifier(t *testing.T) {
	today := day(2025, time.June, 10)
	txs := []core.Transaction{tx("1", day(2025, time.June, 2), "Food", "50")}
	p := ProjectWith(txs, fixedEverything{}, today, core.Selection{Year: 2025, Month: 6})
	assertDec(t, "50", p.FixedSoFar)
	assertDec(t, "50", p.ProjectedTotal)
	assert.True(t, p.DailyAvg.IsZero())
}

func TestGroupByCategory(t *testing.T) {
	got := GroupByCategory(sample())
	require.Len(t, got, 3)
	assertDec(t, "1200", got["Rent"])
	assertDec(t, "50.5", got["Dine & Grocery"])
	assertDec(t, "12", got["Transport"])
}

func TestGroupByDateAscending(t *testing.T) {
	txs := append(sample(), tx("6", day(2025, time.May, 3), "Other", "1"))
	got := GroupByDate(txs)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Date.Before(got[i].Date))
	}
	assert.Equal(t, day(2025, time.May, 3), got[2].Date)
	assertDec(t, "43.1", got[2].Amount)
}

func TestTopN(t *testing.T) {
	txs := sample()
	assert.Equal(t, []string{"1", "3", "2"}, ids(TopN(txs, 3)))
	assert.Len(t, TopN(txs, 50), len(txs))
	assert.Empty(t, TopN(txs, 0))
	assert.Equal(t, "1", txs[0].ID, "input order untouched")
}

func TestCategoryBreakdown(t *testing.T) {
	got := CategoryBreakdown(sample())
	require.Len(t, got, 3)
	assert.Equal(t, "Rent", got[0].Category)
	assert.Equal(t, "Dine & Grocery", got[1].Category)
	assert.Equal(t, "Transport", got[2].Category)

	total := decimal.Zero
	for _, c := range got {
		total = total.Add(c.Amount)
	}
	assertDec(t, core.Sum(sample()).String(), total)
}
