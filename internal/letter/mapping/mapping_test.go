package mapping

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	letterdomain "github.com/smallbiznis/peoplehub/internal/letter/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapper() *Mapper {
	return New(Options{
		Formatter:  salarydomain.Formatter{Locale: salarydomain.LocaleIndia, ZeroLabel: "0"},
		DateLayout: "02 Jan 2006",
		Defaults:   map[string]string{"company_name": "Acme Pvt Ltd", "address": "On file"},
		Now:        func() time.Time { return time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC) },
	})
}

func snapshot() *salarydomain.Snapshot {
	s := salarydomain.NewSnapshot("", "Custom", []salarydomain.Component{
		{Label: "Basic Pay", Category: salarydomain.CategoryEarning, Annual: decimal.NewFromInt(600000)},
		{Label: "H.R.A", Category: salarydomain.CategoryEarning, Annual: decimal.NewFromInt(240000)},
		{Label: "Provident Fund", Category: salarydomain.CategoryDeduction, Annual: decimal.NewFromInt(21600)},
		{Label: "Gratuity", Category: salarydomain.CategoryEmployerBenefit, Annual: decimal.Zero, DisplayText: "As per Act"},
	}, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	return &s
}

func applicant() ApplicantView {
	joining := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	return ApplicantView{
		LetterType:    letterdomain.LetterTypeOffer,
		ApplicationID: "1001",
		CandidateName: "Asha Rao",
		Email:         "asha@example.com",
		Address:       "Y",
		JobTitle:      "Backend Engineer",
		Location:      "Bengaluru",
		JoiningDate:   &joining,
	}
}

func TestOverridePrecedence(t *testing.T) {
	m := newMapper()

	got, err := m.MapToPlaceholders(applicant(), map[string]any{"address": "X"}, snapshot())
	require.NoError(t, err)
	v, _ := got.Get("address")
	assert.Equal(t, "X", v)

	got, err = m.MapToPlaceholders(applicant(), map[string]any{"address": ""}, snapshot())
	require.NoError(t, err)
	v, _ = got.Get("address")
	assert.Equal(t, "Y", v)

	got, err = m.MapToPlaceholders(applicant(), map[string]any{"address": "   ", "phone": nil}, snapshot())
	require.NoError(t, err)
	v, _ = got.Get("address")
	assert.Equal(t, "Y", v)
}

func TestKeepBlankOverrides(t *testing.T) {
	m := New(Options{
		Formatter:          salarydomain.Formatter{Locale: salarydomain.LocaleIndia, ZeroLabel: "0"},
		Defaults:           map[string]string{"company_name": "Acme Pvt Ltd"},
		KeepBlankOverrides: true,
	})

	got, err := m.MapToPlaceholders(applicant(), map[string]any{"address": "", "company_name": " "}, snapshot())
	require.NoError(t, err)
	v, _ := got.Get("address")
	assert.Equal(t, "", v)
	v, _ = got.Get("company_name")
	assert.Equal(t, "", v)
	v, _ = got.Get("candidate_name")
	assert.Equal(t, "Asha Rao", v)
}

func TestDefaultsFillMissingEntityFields(t *testing.T) {
	view := applicant()
	view.Address = ""

	got, err := newMapper().MapToPlaceholders(view, nil, snapshot())
	require.NoError(t, err)

	address, _ := got.Get("address")
	company, _ := got.Get("company_name")
	hr, ok := got.Get("hr_name")
	assert.Equal(t, "On file", address)
	assert.Equal(t, "Acme Pvt Ltd", company)
	assert.True(t, ok)
	assert.Empty(t, hr)
}

func TestEntityFieldsAndDates(t *testing.T) {
	got, err := newMapper().MapToPlaceholders(applicant(), map[string]any{
		"offer_valid_until": time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
	}, snapshot())
	require.NoError(t, err)

	m := got.Map()
	assert.Equal(t, "Asha Rao", m["candidate_name"])
	assert.Equal(t, "Asha Rao", m["employee_name"])
	assert.Equal(t, "Backend Engineer", m["designation"])
	assert.Equal(t, "Bengaluru", m["work_location"])
	assert.Equal(t, "03 Aug 2026", m["joining_date"])
	assert.Equal(t, "01 Jul 2026", m["letter_date"])
	assert.Equal(t, "15 Jul 2026", m["offer_valid_until"])
	_, hasCode := m["employee_code"]
	assert.False(t, hasCode)
}

func TestSalaryKeys(t *testing.T) {
	got, err := newMapper().MapToPlaceholders(applicant(), map[string]any{"ctc_annual": "1"}, snapshot())
	require.NoError(t, err)

	m := got.Map()
	assert.Equal(t, "50,000", m["basicpay_monthly"])
	assert.Equal(t, "6,00,000", m["basicpay_annual"])
	assert.Equal(t, "20,000", m["hra_monthly"])
	assert.Equal(t, "1,800", m["providentfund_monthly"])
	assert.Equal(t, "As per Act", m["gratuity_annual"])
	assert.Equal(t, "8,40,000", m["gross_annual"])
	assert.Equal(t, "8,18,400", m["net_annual"])
	assert.Equal(t, "21,600", m["total_deductions_annual"])
	assert.Equal(t, "0", m["employer_benefits_annual"])
	assert.Equal(t, "8,40,000", m["ctc_annual"])
	assert.Equal(t, "70,000", m["ctc_monthly"])
}

func TestSalaryAggregatesComeFromStoredTotals(t *testing.T) {
	snap := snapshot()
	snap.Totals.GrossEarnings = decimal.NewFromInt(900000)
	snap.Totals.MonthlyGross = decimal.NewFromInt(75000)
	snap.Totals.AnnualCTC = decimal.NewFromInt(950000)
	snap.Totals.NetSalary = decimal.NewFromInt(870000)

	got, err := newMapper().MapToPlaceholders(applicant(), nil, snap)
	require.NoError(t, err)

	m := got.Map()
	assert.Equal(t, "9,00,000", m["gross_annual"])
	assert.Equal(t, "75,000", m["gross_monthly"])
	assert.Equal(t, "9,50,000", m["ctc_annual"])
	assert.Equal(t, "8,70,000", m["net_annual"])
}

func TestKeyOrderIsStable(t *testing.T) {
	m := newMapper()
	first, err := m.MapToPlaceholders(applicant(), nil, snapshot())
	require.NoError(t, err)
	second, err := m.MapToPlaceholders(applicant(), nil, snapshot())
	require.NoError(t, err)

	assert.Equal(t, first.Keys(), second.Keys())
	assert.Equal(t, Keys(letterdomain.LetterTypeOffer), first.Keys()[:len(Keys(letterdomain.LetterTypeOffer))])
	assert.Equal(t, len(Keys(letterdomain.LetterTypeOffer))+8, first.Len())
}

func TestJoiningLetterKeys(t *testing.T) {
	view := applicant()
	view.LetterType = letterdomain.LetterTypeJoining
	view.EmployeeCode = "EMP-202608-ABC"

	got, err := newMapper().MapToPlaceholders(view, nil, snapshot())
	require.NoError(t, err)
	code, _ := got.Get("employee_code")
	assert.Equal(t, "EMP-202608-ABC", code)
	_, ok := got.Get("offer_valid_until")
	assert.False(t, ok)
}

func TestMissingSnapshotIsIncomplete(t *testing.T) {
	_, err := newMapper().MapToPlaceholders(applicant(), nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDataIncomplete))
}
