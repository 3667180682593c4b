package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PayslipData struct {
	CompanyName  string
	EmployeeName string
	EmployeeCode string
	Designation  string
	Period       string
	DaysInMonth  int
	LOPDays      int
	PayableDays  int

	// Earnings and Deductions use Row.Monthly for the amount.
	Earnings   []Row
	Deductions []Row

	Gross           string
	TotalDeductions string
	Net             string
}

func (p *PDFProvider) GeneratePayslip(ctx context.Context, data PayslipData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := maroto.New(config.NewBuilder().Build())

	m.AddRow(12,
		text.NewCol(12, data.CompanyName, props.Text{Size: 16, Style: fontstyle.Bold}),
	)
	m.AddRow(10,
		text.NewCol(12, "Payslip for "+data.Period, props.Text{Size: 12, Style: fontstyle.Bold}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Employee: "+data.EmployeeName, props.Text{Top: 0}),
			text.New("Employee code: "+data.EmployeeCode, props.Text{Top: 5}),
			text.New("Designation: "+data.Designation, props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New(fmt.Sprintf("Days in month: %d", data.DaysInMonth), props.Text{Top: 0, Align: align.Right}),
			text.New(fmt.Sprintf("Loss of pay days: %d", data.LOPDays), props.Text{Top: 5, Align: align.Right}),
			text.New(fmt.Sprintf("Payable days: %d", data.PayableDays), props.Text{Top: 10, Align: align.Right}),
		),
	)

	m.AddRow(8,
		text.NewCol(4, "Earnings", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, "Deductions", props.Text{Style: fontstyle.Bold, Size: 9, Left: 4}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	lines := len(data.Earnings)
	if len(data.Deductions) > lines {
		lines = len(data.Deductions)
	}
	for i := 0; i < lines; i++ {
		cols := make([]core.Col, 0, 4)
		cols = append(cols, sideCols(data.Earnings, i, 0)...)
		cols = append(cols, sideCols(data.Deductions, i, 4)...)
		m.AddRow(7, cols...)
	}

	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		text.NewCol(4, "Gross earnings", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Gross, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(4, "Total deductions", props.Text{Style: fontstyle.Bold, Size: 9, Left: 4}),
		text.NewCol(2, data.TotalDeductions, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(12,
		col.New(6),
		text.NewCol(4, "Net pay", props.Text{Style: fontstyle.Bold, Size: 11, Left: 4, Top: 3}),
		text.NewCol(2, data.Net, props.Text{Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 3}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func sideCols(rows []Row, i int, left float64) []core.Col {
	if i >= len(rows) {
		return []core.Col{col.New(4), col.New(2)}
	}
	return []core.Col{
		text.NewCol(4, rows[i].Label, props.Text{Size: 9, Left: left}),
		text.NewCol(2, rows[i].Monthly, props.Text{Size: 9, Align: align.Right}),
	}
}

func amountCols(row Row, style props.Text) []core.Col {
	right := style
	right.Align = align.Right
	return []core.Col{
		text.NewCol(6, row.Label, style),
		text.NewCol(3, row.Monthly, right),
		text.NewCol(3, row.Annual, right),
	}
}
