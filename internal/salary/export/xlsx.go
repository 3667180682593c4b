package export

import (
	"bytes"
	"strconv"

	"github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Breakdown"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// BreakdownXLSX writes the snapshot's breakdown rows into a single-sheet workbook.
func BreakdownXLSX(snapshot domain.Snapshot, f domain.Formatter) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	rows := domain.BreakdownRows(snapshot, f)
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			if err := book.SetCellValue(SheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(domain.BreakdownHeader))
	if err != nil {
		return nil, err
	}
	if err := book.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return nil, err
	}
	totalsStart := len(rows) - domain.BreakdownTotalRows + 1
	if err := book.SetCellStyle(SheetName, "A"+itoa(totalsStart), lastCol+itoa(len(rows)), bold); err != nil {
		return nil, err
	}
	if err := book.SetColWidth(SheetName, "A", "A", 28); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
