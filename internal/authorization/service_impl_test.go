package authorization

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orgMember struct {
	OrgID  int64  `gorm:"column:org_id"`
	UserID int64  `gorm:"column:user_id"`
	Role   string `gorm:"column:role"`
}

func (orgMember) TableName() string { return "org_members" }

func newTestAuthorizer(t *testing.T) Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orgMember{}))
	require.NoError(t, db.Create(&[]orgMember{
		{OrgID: 100, UserID: 1, Role: "recruiter"},
		{OrgID: 100, UserID: 2, Role: "HR_ADMIN"},
		{OrgID: 100, UserID: 3, Role: "viewer"},
	}).Error)

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)
	return NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer})
}

func TestAuthorizeByRole(t *testing.T) {
	svc := newTestAuthorizer(t)
	ctx := context.Background()

	assert.NoError(t, svc.Authorize(ctx, "user:1", "100", ObjectApplication, ActionApplicationChangeStatus))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "100", ObjectOffer, ActionOfferCreate), ErrForbidden)
	assert.NoError(t, svc.Authorize(ctx, "user:2", "100", ObjectOffer, ActionOfferCreate))
	assert.NoError(t, svc.Authorize(ctx, "user:3", "100", ObjectJob, ActionJobView))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:3", "100", ObjectJob, ActionJobCreate), ErrForbidden)
}

func TestAuthorizeUnknownMemberIsForbidden(t *testing.T) {
	svc := newTestAuthorizer(t)
	assert.ErrorIs(t, svc.Authorize(context.Background(), "user:9", "100", ObjectJob, ActionJobView), ErrForbidden)
}

func TestAuthorizeSystemActor(t *testing.T) {
	svc := newTestAuthorizer(t)
	assert.NoError(t, svc.Authorize(context.Background(), "system", "100", ObjectOffer, ActionOfferExpire))
	assert.ErrorIs(t, svc.Authorize(context.Background(), "system", "100", ObjectEmployee, ActionEmployeeConvert), ErrForbidden)
}

func TestAuthorizeRejectsMalformedInput(t *testing.T) {
	svc := newTestAuthorizer(t)
	ctx := context.Background()
	assert.ErrorIs(t, svc.Authorize(ctx, "", "100", ObjectJob, ActionJobView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "robot:1", "100", ObjectJob, ActionJobView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "", ObjectJob, ActionJobView), ErrInvalidOrganization)
}
