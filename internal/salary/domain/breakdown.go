package domain

// Rows outside the per-component lines: one header and five totals.
const (
	BreakdownHeaderRows = 1
	BreakdownTotalRows  = 5
)

var BreakdownHeader = []string{"Component", "Category", "Monthly", "Annual"}

// BreakdownRows renders one row per component, zero amounts included, followed
// by gross, deductions, net, employer benefits and CTC.
func BreakdownRows(s Snapshot, f Formatter) [][]string {
	rows := make([][]string, 0, BreakdownHeaderRows+len(s.Earnings)+len(s.Deductions)+len(s.Benefits)+BreakdownTotalRows)
	rows = append(rows, append([]string(nil), BreakdownHeader...))

	for _, c := range s.Components() {
		rows = append(rows, []string{
			c.Label,
			string(c.Category),
			f.FormatComponent(c, c.Monthly()),
			f.FormatComponent(c, c.Annual),
		})
	}

	t := s.Totals
	rows = append(rows,
		[]string{"Gross Earnings", "", f.FormatAmount(t.MonthlyGross), f.FormatAmount(t.GrossEarnings)},
		[]string{"Total Deductions", "", f.FormatAmount(t.TotalDeductions.Div(monthsPerYear)), f.FormatAmount(t.TotalDeductions)},
		[]string{"Net Salary", "", f.FormatAmount(t.MonthlyNet), f.FormatAmount(t.NetSalary)},
		[]string{"Employer Benefits", "", f.FormatAmount(t.EmployerBenefitsTotal.Div(monthsPerYear)), f.FormatAmount(t.EmployerBenefitsTotal)},
		[]string{"Cost to Company", "", f.FormatAmount(t.MonthlyCTC), f.FormatAmount(t.AnnualCTC)},
	)
	return rows
}
