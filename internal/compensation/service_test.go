package compensation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/providers/pdf"
	recruitmentdomain "github.com/smallbiznis/peoplehub/internal/recruitment/domain"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recruitmentMock struct {
	recruitmentdomain.Service
	mock.Mock
}

func (m *recruitmentMock) LoadEmployee(ctx context.Context, id string) (*recruitmentdomain.Employee, *salarydomain.Snapshot, error) {
	args := m.Called(ctx, id)
	employee, _ := args.Get(0).(*recruitmentdomain.Employee)
	snapshot, _ := args.Get(1).(*salarydomain.Snapshot)
	return employee, snapshot, args.Error(2)
}

func (m *recruitmentMock) LoadLetterSubject(ctx context.Context, applicationID string) (*recruitmentdomain.LetterSubject, error) {
	args := m.Called(ctx, applicationID)
	subject, _ := args.Get(0).(*recruitmentdomain.LetterSubject)
	return subject, args.Error(1)
}

func snapshot() *salarydomain.Snapshot {
	s := salarydomain.NewSnapshot("1", "Standard", []salarydomain.Component{
		{Label: "Basic", Category: salarydomain.CategoryEarning, Annual: decimal.NewFromInt(360000)},
		{Label: "PF", Category: salarydomain.CategoryDeduction, Annual: decimal.NewFromInt(24000)},
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return &s
}

func newService(rec *recruitmentMock) *Service {
	cfg := config.DefaultLetterConfig()
	cfg.Defaults["company_name"] = "Acme"
	return NewService(Params{
		Log:         zap.NewNop(),
		LetterCfg:   config.NewStaticLetterConfigHolder(cfg),
		Recruitment: rec,
		PDF:         pdf.New(),
		Clock:       clock.NewFakeClock(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)),
	})
}

func TestPayslip(t *testing.T) {
	rec := &recruitmentMock{}
	rec.On("LoadEmployee", mock.Anything, "55").Return(&recruitmentdomain.Employee{
		ID: 55, EmployeeCode: "EMP-0007", FullName: "Asha Rao",
	}, snapshot(), nil)

	doc, err := newService(rec).Payslip(context.Background(), PayslipRequest{EmployeeID: "55", Period: "2026-06", LOPDays: 2})
	require.NoError(t, err)
	assert.Equal(t, "Payslip_EMP-0007_2026-06.pdf", doc.FileName)
	assert.Equal(t, pdf.ContentType, doc.ContentType)
	assert.Equal(t, "%PDF", string(doc.Content[:4]))
	rec.AssertExpectations(t)
}

func TestPayslipValidation(t *testing.T) {
	rec := &recruitmentMock{}
	svc := newService(rec)

	_, err := svc.Payslip(context.Background(), PayslipRequest{EmployeeID: "55", Period: "06/2026"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	rec.On("LoadEmployee", mock.Anything, "55").Return(&recruitmentdomain.Employee{ID: 55}, nil, nil)
	_, err = svc.Payslip(context.Background(), PayslipRequest{EmployeeID: "55", Period: "2026-06"})
	assert.True(t, apperr.IsKind(err, apperr.KindDataIncomplete))
}

func TestPayslipRejectsTooManyLOPDays(t *testing.T) {
	rec := &recruitmentMock{}
	rec.On("LoadEmployee", mock.Anything, "55").Return(&recruitmentdomain.Employee{ID: 55}, snapshot(), nil)

	_, err := newService(rec).Payslip(context.Background(), PayslipRequest{EmployeeID: "55", Period: "2026-02", LOPDays: 30})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestOfferAnnexure(t *testing.T) {
	rec := &recruitmentMock{}
	rec.On("LoadLetterSubject", mock.Anything, "9").Return(&recruitmentdomain.LetterSubject{
		Application: recruitmentdomain.Application{ID: 9, Designation: "Engineer"},
		Candidate:   recruitmentdomain.Candidate{FullName: "Asha Rao"},
		Offer:       &recruitmentdomain.Offer{ID: 3},
		Snapshot:    snapshot(),
	}, nil)

	doc, err := newService(rec).OfferAnnexure(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, "Annexure_9.pdf", doc.FileName)
	assert.Equal(t, "%PDF", string(doc.Content[:4]))
}

func TestOfferAnnexureRequiresSnapshot(t *testing.T) {
	rec := &recruitmentMock{}
	rec.On("LoadLetterSubject", mock.Anything, "9").Return(&recruitmentdomain.LetterSubject{
		Application: recruitmentdomain.Application{ID: 9},
	}, nil)

	_, err := newService(rec).OfferAnnexure(context.Background(), "9")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeSalarySnapshotRequired, appErr.Code)
}
