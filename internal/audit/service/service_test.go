package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/smallbiznis/peoplehub/internal/audit/repository"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/clock"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	"github.com/smallbiznis/peoplehub/pkg/db/pagination"
	"github.com/smallbiznis/peoplehub/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: fake,
	})
	return svc, fake
}

func TestAuditLogResolvesActorAndRedacts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(7))
	ctx = auditcontext.WithActor(ctx, "user", "u-1")
	ctx = auditcontext.WithRequestID(ctx, "req-1")
	ctx = correlation.WithID(ctx, "corr-1")

	targetID := "99"
	require.NoError(t, svc.AuditLog(ctx, nil, "", nil, "candidate.create", "candidate", &targetID, map[string]any{
		"email": "jane@example.com",
	}))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "user", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "u-1", *entry.ActorID)
	assert.Equal(t, "j****@example.com", entry.Metadata["email"])
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, "corr-1", entry.Metadata["correlation_id"])
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.AuditLog(context.Background(), nil, "", nil, " ", "offer", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(7))
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, nil, "system", nil, "offer.expire", "offer", nil, nil))
		fake.Advance(time.Minute)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken}})
	require.NoError(t, err)
	assert.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
}

func TestListRequiresOrganization(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidOrganization)
}

func TestListFiltersByActionNamespaceAndActor(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(7))
	recruiter := auditcontext.WithActor(ctx, "user", "u-2")

	require.NoError(t, svc.AuditLog(recruiter, nil, "", nil, "offer.create", "offer", nil, nil))
	fake.Advance(time.Second)
	require.NoError(t, svc.AuditLog(recruiter, nil, "", nil, "application.status_change", "application", nil, nil))
	fake.Advance(time.Second)
	require.NoError(t, svc.AuditLog(ctx, nil, "system", nil, "offer.expire", "offer", nil, nil))

	offers, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "offer.*"})
	require.NoError(t, err)
	require.Len(t, offers.AuditLogs, 2)
	assert.Equal(t, "offer.expire", offers.AuditLogs[0].Action)

	byActor, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Action: "offer.*", ActorID: "u-2"})
	require.NoError(t, err)
	require.Len(t, byActor.AuditLogs, 1)
	assert.Equal(t, "offer.create", byActor.AuditLogs[0].Action)

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{Action: ".*"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestAuditCursorKeepsSubSecondPrecision(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)
	token := encodeAuditCursor(&auditdomain.AuditLog{ID: snowflake.ID(55), CreatedAt: createdAt})
	require.NotEmpty(t, token)

	cursor, err := decodeAuditCursor(token)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(55), cursor.ID)
	assert.True(t, createdAt.Equal(cursor.CreatedAt))

	none, err := decodeAuditCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = decodeAuditCursor("not-a-token")
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
