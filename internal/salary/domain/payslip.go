package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const PeriodLayout = "2006-01"

var (
	ErrInvalidPeriod  = errors.New("invalid_period")
	ErrInvalidLOPDays = errors.New("invalid_lop_days")
)

type PayslipLine struct {
	Label  string
	Amount decimal.Decimal
}

// Payslip is one month of a snapshot. Earnings are prorated by payable days;
// deductions are taken in full.
type Payslip struct {
	Period          time.Time
	DaysInMonth     int
	LOPDays         int
	PayableDays     int
	Earnings        []PayslipLine
	Deductions      []PayslipLine
	Gross           decimal.Decimal
	TotalDeductions decimal.Decimal
	Net             decimal.Decimal
}

// ParsePeriod reads a YYYY-MM month.
func ParsePeriod(value string) (time.Time, error) {
	period, err := time.Parse(PeriodLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidPeriod
	}
	return period.UTC(), nil
}

func ComputePayslip(s Snapshot, period time.Time, lopDays int) (Payslip, error) {
	start := time.Date(period.Year(), period.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := start.AddDate(0, 1, -1).Day()
	if lopDays < 0 || lopDays > days {
		return Payslip{}, ErrInvalidLOPDays
	}

	payable := days - lopDays
	ratio := decimal.NewFromInt(int64(payable)).Div(decimal.NewFromInt(int64(days)))

	slip := Payslip{
		Period:          start,
		DaysInMonth:     days,
		LOPDays:         lopDays,
		PayableDays:     payable,
		Earnings:        make([]PayslipLine, 0, len(s.Earnings)),
		Deductions:      make([]PayslipLine, 0, len(s.Deductions)),
		Gross:           decimal.Zero,
		TotalDeductions: decimal.Zero,
	}
	for _, c := range s.Earnings {
		amount := c.Monthly().Mul(ratio).Round(2)
		slip.Earnings = append(slip.Earnings, PayslipLine{Label: c.Label, Amount: amount})
		slip.Gross = slip.Gross.Add(amount)
	}
	for _, c := range s.Deductions {
		amount := c.Monthly().Round(2)
		slip.Deductions = append(slip.Deductions, PayslipLine{Label: c.Label, Amount: amount})
		slip.TotalDeductions = slip.TotalDeductions.Add(amount)
	}
	slip.Net = slip.Gross.Sub(slip.TotalDeductions)
	return slip, nil
}
