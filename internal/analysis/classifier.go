package analysis

import (
	"github.com/shopspring/decimal"

	"pfm/internal/core"
)

// MatchTolerance is the strict upper bound on the amount difference for a
// transaction to match a template.
var MatchTolerance = decimal.RequireFromString("0.01")

// Classifier tags a transaction as fixed or variable.
type Classifier interface {
	Classify(t core.Transaction) core.Classification
}

// TemplateClassifier re-derives the tag from the configured templates on
// every call. Changing a template amount reclassifies older transactions
// recorded at the previous amount as variable.
type TemplateClassifier struct {
	Templates []core.FixedTemplate
}

func (c TemplateClassifier) Classify(t core.Transaction) core.Classification {
	return Classify(t, c.Templates)
}

// Classify reports Fixed when some template has the same category and an
// amount within MatchTolerance (exclusive).
func Classify(t core.Transaction, templates []core.FixedTemplate) core.Classification {
	for _, tpl := range templates {
		if tpl.Category != t.Category {
			continue
		}
		if t.Amount.Sub(tpl.Amount).Abs().LessThan(MatchTolerance) {
			return core.Fixed
		}
	}
	return core.Variable
}

// Partition splits txs by classification, preserving order.
func Partition(txs []core.Transaction, c Classifier) (fixed, variable []core.Transaction) {
	for _, t := range txs {
		if c.Classify(t) == core.Fixed {
			fixed = append(fixed, t)
		} else {
			variable = append(variable, t)
		}
	}
	return fixed, variable
}
