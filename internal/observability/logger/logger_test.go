package logger

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/peoplehub/internal/auditcontext"
	"github.com/smallbiznis/peoplehub/internal/orgcontext"
	"github.com/smallbiznis/peoplehub/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactingCoreMasksCandidateFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(NewRedactingCore(core)).With(zap.String("candidate_email", "jane@example.com"))

	log.Info("offer sent", zap.String("phone", "+919876543210"), zap.String("status", "OFFERED"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "j****@example.com", fields["candidate_email"])
	assert.Equal(t, "****3210", fields["phone"])
	assert.Equal(t, "OFFERED", fields["status"])
}

func TestWithContextAddsRequestScopedFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(42))
	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeUser, "7")
	ctx = correlation.WithID(ctx, "01J0000000000000000000000")

	WithContext(ctx, base).Info("letter rendered")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "42", fields["org_id"])
	assert.Equal(t, "user", fields["actor_type"])
	assert.Equal(t, "7", fields["actor_id"])
	assert.Equal(t, "01J0000000000000000000000", fields["correlation_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestConfigLevelFallsBackToDebugFlag(t *testing.T) {
	lvl, err := Config{Debug: true}.level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = Config{Level: "loud"}.level()
	assert.Error(t, err)
}
