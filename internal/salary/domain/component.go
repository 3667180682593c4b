package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryEarning         Category = "EARNING"
	CategoryDeduction       Category = "DEDUCTION"
	CategoryEmployerBenefit Category = "EMPLOYER_BENEFIT"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryEarning, CategoryDeduction, CategoryEmployerBenefit:
		return true
	default:
		return false
	}
}

var monthsPerYear = decimal.NewFromInt(12)

// Component is one salary line. Annual is the stored figure; monthly is derived.
type Component struct {
	Label       string          `json:"label"`
	Category    Category        `json:"category"`
	Annual      decimal.Decimal `json:"annual"`
	DisplayText string          `json:"display_text,omitempty"`
}

func (c Component) Monthly() decimal.Decimal {
	return c.Annual.Div(monthsPerYear)
}

// Split partitions components by category, preserving order.
func Split(components []Component) (earnings, deductions, benefits []Component) {
	for _, c := range components {
		switch c.Category {
		case CategoryEarning:
			earnings = append(earnings, c)
		case CategoryDeduction:
			deductions = append(deductions, c)
		case CategoryEmployerBenefit:
			benefits = append(benefits, c)
		}
	}
	return earnings, deductions, benefits
}

// NormalizeLabel lowercases and strips everything except ASCII letters and digits.
func NormalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Monthly spreads an annual amount over twelve months.
func Monthly(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(monthsPerYear)
}
