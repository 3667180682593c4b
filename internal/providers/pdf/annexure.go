package pdf

import (
	"bytes"
	"context"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// AnnexureData is the salary breakdown attached to an offer.
type AnnexureData struct {
	CompanyName   string
	CandidateName string
	Designation   string
	IssueDate     string
	Sections      []AnnexureSection
	Totals        []Row
}

type AnnexureSection struct {
	Title string
	Rows  []Row
}

func (p *PDFProvider) GenerateAnnexure(ctx context.Context, data AnnexureData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, data.CompanyName, props.Text{
			Size:  16,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(10,
		text.NewCol(12, "Annexure: Compensation Details", props.Text{
			Size:  13,
			Style: fontstyle.Bold,
		}),
	)
	m.AddRow(16,
		col.New(8).Add(
			text.New("Name: "+data.CandidateName, props.Text{Top: 0}),
			text.New("Designation: "+data.Designation, props.Text{Top: 5}),
		),
		text.NewCol(4, "Date: "+data.IssueDate, props.Text{Align: align.Right}),
	)

	m.AddRow(8,
		text.NewCol(6, "Component", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Monthly", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Annual", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, section := range data.Sections {
		if len(section.Rows) == 0 {
			continue
		}
		m.AddRow(8, text.NewCol(12, section.Title, props.Text{Style: fontstyle.Bold, Size: 9, Top: 2}))
		for _, row := range section.Rows {
			m.AddRow(7, amountCols(row, props.Text{Size: 9})...)
		}
	}

	m.AddRow(2, line.NewCol(12))
	for _, row := range data.Totals {
		m.AddRow(7, amountCols(row, props.Text{Size: 9, Style: fontstyle.Bold})...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
