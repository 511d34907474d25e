package analysis

import (
	"github.com/shopspring/decimal"

	"pfm/internal/core"
)

// Project computes the month-end projection for an already filtered set
// using the template classifier.
func Project(filtered []core.Transaction, templates []core.FixedTemplate, today core.Date, sel core.Selection) core.Projection {
	return ProjectWith(filtered, TemplateClassifier{Templates: templates}, today, sel)
}

// ProjectWith is Project with an explicit classifier.
//
// When the selection is the month containing today, spending splits into
// fixed obligations, organic daily spending and already booked future
// costs; only the organic part is averaged and extrapolated. Other
// concrete months are averaged over their full length. Any "All" in the
// year or month yields a plain count.
func ProjectWith(filtered []core.Transaction, c Classifier, today core.Date, sel core.Selection) core.Projection {
	total := core.Sum(filtered)
	p := core.Projection{
		TotalBooked: total,
		SpentToDate: total,
		Count:       len(filtered),
	}

	if !sel.ConcreteMonth() {
		p.Mode = core.ModeAggregate
		p.Label = core.LabelTransactions
		return p
	}

	days := core.DaysInMonth(sel.Year, sel.Month)
	p.DaysInMonth = days

	if sel.Year != today.Year() || sel.Month != int(today.Month()) {
		p.Mode = core.ModeCalendarMonth
		p.Label = core.LabelDailyAvg
		p.DailyAvg = dailyAverage(total, days)
		return p
	}

	p.Mode = core.ModeCurrentMonth
	p.Label = core.LabelDailyLivingAvg

	var pastOrToday []core.Transaction
	for _, t := range filtered {
		if t.Date.After(today) {
			p.FutureBooked = p.FutureBooked.Add(t.Amount)
			continue
		}
		pastOrToday = append(pastOrToday, t)
	}

	fixed, variable := Partition(pastOrToday, c)
	p.FixedSoFar = core.Sum(fixed)
	p.VariableSoFar = core.Sum(variable)
	p.SpentToDate = p.FixedSoFar.Add(p.VariableSoFar)
	p.DaysPassed = today.Day()

	p.DailyAvg = dailyAverage(p.VariableSoFar, p.DaysPassed)
	p.ProjectedVariable = projectVariable(p.VariableSoFar, p.DaysPassed, days)
	p.ProjectedTotal = p.FixedSoFar.Add(p.ProjectedVariable).Add(p.FutureBooked)
	return p
}

// dailyAverage is total/days, or 0 when days is not positive.
func dailyAverage(total decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days)))
}

// projectVariable scales spending over passed days to the full month.
// Multiplying before dividing keeps results like 50/10*30 exact.
func projectVariable(variable decimal.Decimal, passed, days int) decimal.Decimal {
	if passed <= 0 {
		return decimal.Zero
	}
	return variable.Mul(decimal.NewFromInt(int64(days))).Div(decimal.NewFromInt(int64(passed)))
}
