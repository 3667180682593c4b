package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	LocaleIndia = "en-IN"
	LocaleUS    = "en-US"
)

// Formatter renders amounts for letters and exports.
type Formatter struct {
	Locale    string
	ZeroLabel string
}

// FormatAmount rounds to a whole unit and groups digits for the locale.
// en-IN groups as 12,34,567; anything else groups by thousands.
func (f Formatter) FormatAmount(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	if rounded.IsZero() {
		if label := strings.TrimSpace(f.ZeroLabel); label != "" {
			return label
		}
		return "0"
	}

	digits := rounded.Abs().String()
	var grouped string
	if f.Locale == LocaleIndia {
		grouped = groupIndian(digits)
	} else {
		grouped = groupThousands(digits)
	}
	if rounded.IsNegative() {
		return "-" + grouped
	}
	return grouped
}

// FormatComponent prefers the component's display text for zero amounts.
func (f Formatter) FormatComponent(c Component, amount decimal.Decimal) string {
	if amount.Round(0).IsZero() && strings.TrimSpace(c.DisplayText) != "" {
		return strings.TrimSpace(c.DisplayText)
	}
	return f.FormatAmount(amount)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return strings.Join(parts, ",") + "," + tail
}
