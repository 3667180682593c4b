package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LetterConfig holds letter rendering settings that can change at runtime.
type LetterConfig struct {
	// ZeroAmountLabel replaces a zero salary figure; "0" keeps the numeral.
	ZeroAmountLabel string            `mapstructure:"zeroAmountLabel"`
	Locale          string            `mapstructure:"locale"`
	DateLayout      string            `mapstructure:"dateLayout"`
	UploadsDir      string            `mapstructure:"uploadsDir"`
	TemplatesDir    string            `mapstructure:"templatesDir"`
	GeneratedDir    string            `mapstructure:"generatedDir"`
	PreviewDir      string            `mapstructure:"previewDir"`
	Defaults        map[string]string `mapstructure:"defaults"`
	// BlankOverrides is "fallthrough" (a blank override yields to the entity
	// value) or "keep" (a blank override blanks the placeholder).
	BlankOverrides string `mapstructure:"blankOverrides"`
}

const (
	BlankOverridesFallthrough = "fallthrough"
	BlankOverridesKeep        = "keep"
)

func DefaultLetterConfig() LetterConfig {
	return LetterConfig{
		ZeroAmountLabel: "0",
		Locale:          "en-IN",
		DateLayout:      "02 Jan 2006",
		UploadsDir:      "uploads",
		TemplatesDir:    "templates",
		GeneratedDir:    "letters",
		PreviewDir:      "previews",
		BlankOverrides:  BlankOverridesFallthrough,
		Defaults: map[string]string{
			"company_name":  "",
			"hr_name":       "",
			"work_location": "",
		},
	}
}

type LetterConfigHolder struct {
	current atomic.Value // holds LetterConfig
}

// NewStaticLetterConfigHolder wraps a fixed config, mainly for tests and tools.
func NewStaticLetterConfigHolder(cfg LetterConfig) *LetterConfigHolder {
	holder := &LetterConfigHolder{}
	holder.current.Store(normalizeLetterConfig(cfg))
	return holder
}

func NewLetterConfigHolder(log *zap.Logger) (*LetterConfigHolder, error) {
	log = log.Named("config.letters")
	v := viper.New()

	v.SetConfigName("letters")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/peoplehub/config")
	v.AddConfigPath("/etc/peoplehub")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PEOPLEHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLetterConfig()
	v.SetDefault("letters.zeroAmountLabel", defaults.ZeroAmountLabel)
	v.SetDefault("letters.locale", defaults.Locale)
	v.SetDefault("letters.dateLayout", defaults.DateLayout)
	v.SetDefault("letters.uploadsDir", defaults.UploadsDir)
	v.SetDefault("letters.templatesDir", defaults.TemplatesDir)
	v.SetDefault("letters.generatedDir", defaults.GeneratedDir)
	v.SetDefault("letters.previewDir", defaults.PreviewDir)
	v.SetDefault("letters.defaults", defaults.Defaults)
	v.SetDefault("letters.blankOverrides", defaults.BlankOverrides)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg LetterConfig
	if err := v.UnmarshalKey("letters", &cfg); err != nil {
		return nil, err
	}
	if err := validateLetterConfig(cfg); err != nil {
		return nil, err
	}

	holder := &LetterConfigHolder{}
	holder.current.Store(normalizeLetterConfig(cfg))

	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated LetterConfig
		if err := v.UnmarshalKey("letters", &updated); err != nil {
			log.Warn("letter config reload failed", zap.Error(err))
			return
		}
		if err := validateLetterConfig(updated); err != nil {
			log.Warn("invalid letter config ignored", zap.Error(err))
			return
		}
		holder.current.Store(normalizeLetterConfig(updated))
		log.Info("letter config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *LetterConfigHolder) Get() LetterConfig {
	return h.current.Load().(LetterConfig)
}

func validateLetterConfig(cfg LetterConfig) error {
	if strings.TrimSpace(cfg.TemplatesDir) == "" {
		return errors.New("letters.templatesDir cannot be empty")
	}
	if strings.TrimSpace(cfg.GeneratedDir) == "" {
		return errors.New("letters.generatedDir cannot be empty")
	}
	if strings.TrimSpace(cfg.PreviewDir) == "" || cfg.PreviewDir == cfg.GeneratedDir {
		return errors.New("letters.previewDir must be set and differ from generatedDir")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.BlankOverrides)) {
	case "", BlankOverridesFallthrough, BlankOverridesKeep:
	default:
		return errors.New("letters.blankOverrides must be fallthrough or keep")
	}
	return nil
}

func normalizeLetterConfig(cfg LetterConfig) LetterConfig {
	defaults := DefaultLetterConfig()
	if strings.TrimSpace(cfg.ZeroAmountLabel) == "" {
		cfg.ZeroAmountLabel = defaults.ZeroAmountLabel
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		cfg.Locale = defaults.Locale
	}
	if strings.TrimSpace(cfg.DateLayout) == "" {
		cfg.DateLayout = defaults.DateLayout
	}
	if strings.TrimSpace(cfg.UploadsDir) == "" {
		cfg.UploadsDir = defaults.UploadsDir
	}
	if strings.TrimSpace(cfg.TemplatesDir) == "" {
		cfg.TemplatesDir = defaults.TemplatesDir
	}
	if strings.TrimSpace(cfg.GeneratedDir) == "" {
		cfg.GeneratedDir = defaults.GeneratedDir
	}
	if strings.TrimSpace(cfg.PreviewDir) == "" {
		cfg.PreviewDir = defaults.PreviewDir
	}
	cfg.BlankOverrides = strings.ToLower(strings.TrimSpace(cfg.BlankOverrides))
	if cfg.BlankOverrides == "" {
		cfg.BlankOverrides = defaults.BlankOverrides
	}
	if cfg.Defaults == nil {
		cfg.Defaults = map[string]string{}
	}
	return cfg
}
