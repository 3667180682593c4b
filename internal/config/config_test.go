package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "sqlite")
	t.Setenv("STORAGE_BACKEND", "S3")
	t.Setenv("LETTER_CONVERTER_TIMEOUT", "45s")
	t.Setenv("LETTER_DOWNLOAD_BASE_URL", "https://hr.example.com/api/letters/")
	t.Setenv("REDIS_ADDR", "")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, 45*time.Second, cfg.Letters.ConverterTimeout)
	assert.Equal(t, "https://hr.example.com/api/letters", cfg.Letters.PublicDownloadURL)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadIgnoresInvalidDuration(t *testing.T) {
	t.Setenv("LETTER_CONVERTER_TIMEOUT", "forever")

	cfg := Load()

	assert.Equal(t, 60*time.Second, cfg.Letters.ConverterTimeout)
}

func TestLetterConfigHolderDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	holder, err := NewLetterConfigHolder(zap.NewNop())
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "0", cfg.ZeroAmountLabel)
	assert.Equal(t, "templates", cfg.TemplatesDir)
	assert.Equal(t, "previews", cfg.PreviewDir)
	assert.NotNil(t, cfg.Defaults)
}

func TestValidateLetterConfigRejectsSharedPreviewDir(t *testing.T) {
	cfg := DefaultLetterConfig()
	cfg.PreviewDir = cfg.GeneratedDir

	assert.Error(t, validateLetterConfig(cfg))
}

func TestValidateLetterConfigBlankOverrides(t *testing.T) {
	cfg := DefaultLetterConfig()
	cfg.BlankOverrides = "ignore"
	assert.Error(t, validateLetterConfig(cfg))

	cfg.BlankOverrides = " Keep "
	require.NoError(t, validateLetterConfig(cfg))
	assert.Equal(t, BlankOverridesKeep, normalizeLetterConfig(cfg).BlankOverrides)
}
