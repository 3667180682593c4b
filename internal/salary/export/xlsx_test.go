package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBreakdownXLSX(t *testing.T) {
	snap := domain.NewSnapshot("1", "Standard", []domain.Component{
		{Label: "Basic", Category: domain.CategoryEarning, Annual: decimal.NewFromInt(600000)},
		{Label: "PF", Category: domain.CategoryDeduction, Annual: decimal.NewFromInt(21600)},
		{Label: "Gratuity", Category: domain.CategoryEmployerBenefit, Annual: decimal.Zero},
	}, time.Now())

	raw, err := BreakdownXLSX(snap, domain.Formatter{Locale: domain.LocaleIndia, ZeroLabel: "0"})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, domain.BreakdownHeaderRows+3+domain.BreakdownTotalRows)
	assert.Equal(t, domain.BreakdownHeader, rows[0])
	assert.Equal(t, []string{"Basic", "EARNING", "50,000", "6,00,000"}, rows[1])
	assert.Equal(t, []string{"Gratuity", "EMPLOYER_BENEFIT", "0", "0"}, rows[3])
	assert.Equal(t, "Cost to Company", rows[len(rows)-1][0])
}
