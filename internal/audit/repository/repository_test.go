package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/audit/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestInsertWritesAllColumns(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	orgID := snowflake.ID(10)
	targetID := "42"
	entry := &domain.AuditLog{
		ID:         snowflake.ID(1),
		OrgID:      &orgID,
		ActorType:  "user",
		Action:     "offer.send",
		TargetType: "offer",
		TargetID:   &targetID,
		Metadata:   datatypes.JSONMap{"status": "SENT"},
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(
			entry.ID,
			sqlmock.AnyArg(), // org_id
			entry.ActorType,
			nil,
			entry.Action,
			entry.TargetType,
			sqlmock.AnyArg(), // target_id
			sqlmock.AnyArg(), // metadata
			nil,
			nil,
			entry.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, Provide().Insert(context.Background(), db, entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertNilIsNoop(t *testing.T) {
	require.NoError(t, Provide().Insert(context.Background(), nil, nil))
}
