package convert

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/peoplehub/internal/observability/metrics"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
)

const htmlConverterName = "maroto"

// HTML lays out an HTML letter as PDF text blocks. It understands headings,
// paragraphs, list items, table rows, rules and text alignment.
type HTML struct{}

func NewHTML() *HTML {
	return &HTML{}
}

func (c *HTML) Convert(ctx context.Context, inputPath, outputDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperr.ConversionTimeout(0, err)
	}
	start := time.Now()
	defer func() {
		metrics.Workflow().ObserveConversion(htmlConverterName, time.Since(start))
	}()

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return "", apperr.ConversionFailure("read html document", err)
	}
	blocks, err := ParseBlocks(string(raw))
	if err != nil {
		return "", apperr.ConversionFailure("parse html document", err)
	}

	m := maroto.New(config.NewBuilder().
		WithLeftMargin(20).
		WithRightMargin(20).
		WithTopMargin(15).
		Build())
	for _, b := range blocks {
		m.AddRows(blockRow(b))
	}

	doc, err := m.Generate()
	if err != nil {
		return "", apperr.ConversionFailure("generate pdf", err)
	}
	out := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))+".pdf")
	if err := os.WriteFile(out, doc.GetBytes(), 0o644); err != nil {
		return "", apperr.ConversionFailure("write pdf", err)
	}
	return out, nil
}

func blockRow(b Block) core.Row {
	style := props.Text{Size: 10, Align: b.Align, Top: 1, Bottom: 1}
	switch b.Kind {
	case BlockHeading1:
		style.Size, style.Style = 16, fontstyle.Bold
	case BlockHeading2:
		style.Size, style.Style = 13, fontstyle.Bold
	case BlockHeading3:
		style.Size, style.Style = 11, fontstyle.Bold
	case BlockRule:
		return fixedRow(3, col.New(12).Add(line.New(props.Line{Thickness: 0.3})))
	case BlockSpacer:
		return fixedRow(4, col.New(12))
	case BlockTableRow:
		return tableRow(b, style)
	}

	content := b.Text
	if b.Kind == BlockListItem {
		content = "• " + content
		style.Left = 4
	}
	return autoRow(text.NewCol(12, content, style))
}

func tableRow(b Block, style props.Text) core.Row {
	cells := b.Cells
	if len(cells) > 12 {
		cells = append(cells[:11], strings.Join(cells[11:], " "))
	}
	width := 12 / len(cells)
	cols := make([]core.Col, 0, len(cells))
	for i, cell := range cells {
		size := width
		if i == len(cells)-1 {
			size = 12 - width*(len(cells)-1)
		}
		cellStyle := style
		if i > 0 {
			cellStyle.Align = align.Right
		}
		if b.Header {
			cellStyle.Style = fontstyle.Bold
		}
		cols = append(cols, text.NewCol(size, cell, cellStyle))
	}
	return autoRow(cols...)
}
