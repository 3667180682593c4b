package domain

import "github.com/shopspring/decimal"

// Totals is derived from annual component figures only.
type Totals struct {
	GrossEarnings         decimal.Decimal `json:"gross_earnings"`
	TotalDeductions       decimal.Decimal `json:"total_deductions"`
	NetSalary             decimal.Decimal `json:"net_salary"`
	EmployerBenefitsTotal decimal.Decimal `json:"employer_benefits_total"`
	AnnualCTC             decimal.Decimal `json:"annual_ctc"`
	MonthlyCTC            decimal.Decimal `json:"monthly_ctc"`
	MonthlyGross          decimal.Decimal `json:"monthly_gross"`
	MonthlyNet            decimal.Decimal `json:"monthly_net"`
}

// ComputeTotals sums annual amounts. AnnualCTC is gross plus employer
// benefits and monthly figures are annual divided by twelve.
func ComputeTotals(earnings, deductions, benefits []Component) Totals {
	gross := sum(earnings)
	totalDeductions := sum(deductions)
	employerBenefits := sum(benefits)
	annualCTC := gross.Add(employerBenefits)
	net := gross.Sub(totalDeductions)

	return Totals{
		GrossEarnings:         gross,
		TotalDeductions:       totalDeductions,
		NetSalary:             net,
		EmployerBenefitsTotal: employerBenefits,
		AnnualCTC:             annualCTC,
		MonthlyCTC:            annualCTC.Div(monthsPerYear),
		MonthlyGross:          gross.Div(monthsPerYear),
		MonthlyNet:            net.Div(monthsPerYear),
	}
}

func sum(components []Component) decimal.Decimal {
	total := decimal.Zero
	for _, c := range components {
		total = total.Add(c.Annual)
	}
	return total
}
