package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"pfm/internal/core"
)

// budgetFile is the YAML layout of BUDGET_FILE.
type budgetFile struct {
	MonthlyBudget string   `yaml:"monthly_budget"`
	Categories    []string `yaml:"categories"`
	FixedExpenses []struct {
		Category string `yaml:"category"`
		Amount   string `yaml:"amount"`
		Note     string `yaml:"note"`
	} `yaml:"fixed_expenses"`
}

// DefaultBudget is used when no budget file is configured.
func DefaultBudget() core.Budget {
	return core.Budget{
		MonthlyBudget: decimal.NewFromInt(2000),
		Categories: []string{
			"Rent", "Dine & Grocery", "Transport", "Shopping",
			"Entertainment", "Other", "Medical",
		},
		Templates: []core.FixedTemplate{
			{Category: "Rent", Amount: decimal.NewFromInt(600), Note: "Fixed Rent"},
			{Category: "Other", Amount: decimal.NewFromInt(25), Note: "US Mobile"},
			{Category: "Entertainment", Amount: decimal.RequireFromString("34.93"), Note: "Subscription"},
		},
	}
}

// LoadBudget reads path, or returns DefaultBudget when path is empty.
func LoadBudget(path string) (core.Budget, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultBudget(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read budget file: %w", err)
	}
	return ParseBudget(raw)
}

// ParseBudget decodes a budget document. Unset sections fall back to the
// defaults; template categories must appear in the category list.
func ParseBudget(raw []byte) (core.Budget, error) {
	var f budgetFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return core.Budget{}, fmt.Errorf("parse budget file: %w", err)
	}

	b := DefaultBudget()
	if strings.TrimSpace(f.MonthlyBudget) != "" {
		amt, err := core.ParseAmount(f.MonthlyBudget)
		if err != nil {
			return core.Budget{}, fmt.Errorf("monthly_budget: %w", err)
		}
		b.MonthlyBudget = amt
	}
	if len(f.Categories) > 0 {
		b.Categories = nil
		for _, c := range f.Categories {
			if c = strings.TrimSpace(c); c != "" {
				b.Categories = append(b.Categories, c)
			}
		}
	}
	if f.FixedExpenses != nil {
		b.Templates = make([]core.FixedTemplate, 0, len(f.FixedExpenses))
		for i, fe := range f.FixedExpenses {
			amt, err := core.ParseAmount(fe.Amount)
			if err != nil {
				return core.Budget{}, fmt.Errorf("fixed_expenses[%d]: %w", i, err)
			}
			b.Templates = append(b.Templates, core.FixedTemplate{
				Category: strings.TrimSpace(fe.Category),
				Amount:   amt,
				Note:     fe.Note,
			})
		}
	}
	for i, tpl := range b.Templates {
		if !b.HasCategory(tpl.Category) {
			return core.Budget{}, fmt.Errorf("fixed_expenses[%d]: %w: %q", i, core.ErrUnknownCategory, tpl.Category)
		}
	}
	return b, nil
}
