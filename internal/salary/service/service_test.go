package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	salarydomain "github.com/smallbiznis/peoplehub/internal/salary/domain"
	"github.com/smallbiznis/peoplehub/internal/salary/export"
	"github.com/smallbiznis/peoplehub/internal/salary/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type auditMock struct {
	mock.Mock
}

func (m *auditMock) AuditLog(ctx context.Context, orgID *snowflake.ID, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	args := m.Called(ctx, orgID, actorType, actorID, action, targetType, targetID, metadata)
	return args.Error(0)
}

func (m *auditMock) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(auditdomain.ListAuditLogResponse), args.Error(1)
}

func newTestService(t *testing.T, audit auditdomain.Service) salarydomain.Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&salarydomain.SalaryStructure{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      repository.Provide(),
		Clock:     clock.NewFakeClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)),
		LetterCfg: config.NewStaticLetterConfigHolder(config.DefaultLetterConfig()),
		AuditSvc:  audit,
	})
}

func orgCtx(id int64) context.Context {
	return orgcontext.WithOrgID(context.Background(), snowflake.ID(id))
}

func standardRequest() salarydomain.CreateRequest {
	return salarydomain.CreateRequest{
		Name: "Engineer L2",
		Components: []salarydomain.ComponentInput{
			{Label: "Basic", Category: "EARNING", Annual: "600000"},
			{Label: "HRA", Category: "EARNING", Monthly: "20000"},
			{Label: "PF", Category: "DEDUCTION", Annual: "21600"},
			{Label: "Gratuity", Category: "EMPLOYER_BENEFIT", DisplayText: "As per Rule"},
		},
	}
}

func TestCreateAndSnapshot(t *testing.T) {
	audit := &auditMock{}
	audit.On("AuditLog", mock.Anything, mock.Anything, "", mock.Anything, "salary_structure.created", "salary_structure", mock.Anything, mock.Anything).Return(nil).Once()
	svc := newTestService(t, audit)
	ctx := orgCtx(10)

	created, err := svc.Create(ctx, standardRequest())
	require.NoError(t, err)
	assert.Equal(t, "Engineer L2", created.Name)
	assert.True(t, created.Totals.GrossEarnings.Equal(salaryDecimal("840000")))

	snap, err := svc.Snapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, snap.StructureID)
	assert.Len(t, snap.Earnings, 2)
	assert.Len(t, snap.Deductions, 1)
	assert.Len(t, snap.Benefits, 1)
	assert.True(t, snap.Totals.NetSalary.Equal(salaryDecimal("818400")))

	audit.AssertExpectations(t)
}

func TestGetByIDIsOrgScoped(t *testing.T) {
	svc := newTestService(t, nil)

	created, err := svc.Create(orgCtx(10), standardRequest())
	require.NoError(t, err)

	_, err = svc.GetByID(orgCtx(11), created.ID)
	assert.ErrorIs(t, err, salarydomain.ErrNotFound)

	_, err = svc.GetByID(orgCtx(10), "not-an-id")
	assert.ErrorIs(t, err, salarydomain.ErrInvalidID)

	_, err = svc.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, salarydomain.ErrInvalidOrganization)
}

func TestCreateValidates(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Create(orgCtx(10), salarydomain.CreateRequest{Name: " "})
	assert.ErrorIs(t, err, salarydomain.ErrInvalidName)

	_, err = svc.Create(orgCtx(10), salarydomain.CreateRequest{Name: "x"})
	assert.ErrorIs(t, err, salarydomain.ErrInvalidComponents)
}

func TestListFiltersByName(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := orgCtx(10)

	_, err := svc.Create(ctx, standardRequest())
	require.NoError(t, err)
	other := standardRequest()
	other.Name = "Manager"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	all, err := svc.List(ctx, salarydomain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := svc.List(ctx, salarydomain.ListRequest{Name: "Manager"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Manager", filtered[0].Name)
}

func TestSnapshotFromComponents(t *testing.T) {
	svc := newTestService(t, nil)

	snap, err := svc.SnapshotFromComponents(orgCtx(10), []salarydomain.ComponentInput{
		{Label: "Basic", Category: "EARNING", Monthly: "10000"},
	})
	require.NoError(t, err)
	assert.Empty(t, snap.StructureID)
	assert.True(t, snap.Totals.AnnualCTC.Equal(salaryDecimal("120000")))
}

func TestExportBreakdown(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := orgCtx(10)

	created, err := svc.Create(ctx, standardRequest())
	require.NoError(t, err)

	raw, err := svc.ExportBreakdown(ctx, created.ID)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, salarydomain.BreakdownHeaderRows+4+salarydomain.BreakdownTotalRows)
	assert.Equal(t, []string{"Gratuity", "EMPLOYER_BENEFIT", "As per Rule", "As per Rule"}, rows[4])
}

func salaryDecimal(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
