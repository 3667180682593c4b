package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel  string
	LogFormat string

	OtelEnabled       bool
	OTLPEndpoint      string
	OTLPProtocol      string
	OtelSamplingRatio float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis       RedisConfig
	Storage     StorageConfig
	Letters     LetterRuntimeConfig
	RateLimit   RateLimitConfig
	Recruitment RecruitmentConfig
	Bootstrap   BootstrapConfig
}

// BootstrapConfig seeds a first org with an owner and an API key so a fresh
// install can be driven without a separate admin tool.
type BootstrapConfig struct {
	OrgName    string
	OwnerName  string
	OwnerEmail string
	// APIKey is stored hashed; leave empty to skip seeding.
	APIKey string
}

func (b BootstrapConfig) Enabled() bool {
	return strings.TrimSpace(b.APIKey) != ""
}

type RecruitmentConfig struct {
	// EmployeeCodeTemplate supports {YYYY} {YY} {MM} {DD} and the required {ID}.
	EmployeeCodeTemplate string
	// PhoneRegion parses candidate phones given without a country prefix.
	PhoneRegion string
	// OfferValidity applies when an offer is created without valid_until.
	// Zero leaves such offers open-ended.
	OfferValidity       time.Duration
	ExpirySweepInterval time.Duration
	ExpirySweepBatch    int
}

// RateLimitConfig bounds how often one org may start a letter render.
// Rendering shells out to an office suite, so it is the expensive path.
type RateLimitConfig struct {
	Enabled        bool
	RenderOrgRate  float64
	RenderOrgBurst int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// StorageConfig selects the backend holding templates and generated letters.
type StorageConfig struct {
	Backend string // local, s3, gcs

	LocalDir string

	S3Region   string
	S3Bucket   string
	S3Prefix   string
	S3KMSKeyID string

	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsJSON string
}

// LetterRuntimeConfig covers settings that need a restart to change.
// Hot-reloadable letter settings live in LetterConfigHolder.
type LetterRuntimeConfig struct {
	WorkDir           string
	ConverterBinary   string
	ConverterTimeout  time.Duration
	PublicDownloadURL string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "peoplehub"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development")),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		LogLevel:          strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:         strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OtelEnabled:       getenvBool("OTEL_ENABLED", true),
		OTLPEndpoint:      getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		OTLPProtocol:      otlpProtocol(),
		OtelSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "peoplehub"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "peoplehub.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
			LockTTL:  getenvDuration("REDIS_LOCK_TTL", 15*time.Second),
		},
		Storage: StorageConfig{
			Backend:            strings.ToLower(getenv("STORAGE_BACKEND", "local")),
			LocalDir:           getenv("STORAGE_LOCAL_DIR", "./data"),
			S3Region:           getenv("STORAGE_S3_REGION", ""),
			S3Bucket:           getenv("STORAGE_S3_BUCKET", ""),
			S3Prefix:           getenv("STORAGE_S3_PREFIX", ""),
			S3KMSKeyID:         getenv("STORAGE_S3_KMS_KEY_ID", ""),
			GCSBucket:          getenv("STORAGE_GCS_BUCKET", ""),
			GCSPrefix:          getenv("STORAGE_GCS_PREFIX", ""),
			GCSCredentialsJSON: getenv("STORAGE_GCS_CREDENTIALS_JSON", ""),
		},
		Letters: LetterRuntimeConfig{
			WorkDir:           getenv("LETTER_WORK_DIR", os.TempDir()),
			ConverterBinary:   getenv("LETTER_CONVERTER_BIN", "soffice"),
			ConverterTimeout:  getenvDuration("LETTER_CONVERTER_TIMEOUT", 60*time.Second),
			PublicDownloadURL: strings.TrimRight(getenv("LETTER_DOWNLOAD_BASE_URL", "/api/letters"), "/"),
		},
		Recruitment: RecruitmentConfig{
			EmployeeCodeTemplate: getenv("EMPLOYEE_CODE_TEMPLATE", "EMP-{YYYY}{MM}-{ID}"),
			PhoneRegion:          strings.ToUpper(getenv("PHONE_DEFAULT_REGION", "IN")),
			OfferValidity:        getenvDuration("OFFER_DEFAULT_VALIDITY", 14*24*time.Hour),
			ExpirySweepInterval:  getenvDuration("OFFER_EXPIRY_SWEEP_INTERVAL", 5*time.Minute),
			ExpirySweepBatch:     getenvInt("OFFER_EXPIRY_SWEEP_BATCH", 200),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getenvBool("RATE_LIMIT_ENABLED", false),
			RenderOrgRate:  getenvFloat("RATE_LIMIT_RENDER_ORG_RATE", 0.5),
			RenderOrgBurst: getenvInt("RATE_LIMIT_RENDER_ORG_BURST", 10),
		},
		Bootstrap: BootstrapConfig{
			OrgName:    getenv("BOOTSTRAP_ORG_NAME", "PeopleHub"),
			OwnerName:  getenv("BOOTSTRAP_OWNER_NAME", "Owner"),
			OwnerEmail: strings.ToLower(strings.TrimSpace(getenv("BOOTSTRAP_OWNER_EMAIL", "owner@example.com"))),
			APIKey:     strings.TrimSpace(os.Getenv("BOOTSTRAP_API_KEY")),
		},
	}

	return cfg
}

// otlpProtocol lets the traces-specific variable override the shared one.
func otlpProtocol() string {
	protocol := getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}
	return strings.ToLower(strings.TrimSpace(protocol))
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
