package observability

import (
	"testing"

	"github.com/smallbiznis/peoplehub/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigFillsServiceName(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "production", OtelSamplingRatio: 4})

	assert.Equal(t, "peoplehub", cfg.ServiceName)
	assert.Equal(t, 0.1, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestDebugFollowsLevelOrEnvironment(t *testing.T) {
	assert.True(t, Config{LogLevel: "DEBUG", Environment: "production"}.Debug())
	assert.True(t, Config{LogLevel: "info", Environment: "local"}.Debug())
	assert.False(t, Config{LogLevel: "info", Environment: "staging"}.Debug())
}
