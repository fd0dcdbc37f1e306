package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bridge.
type Config struct {
	App       AppConfig
	Params    ParamStoreConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	AWS       AWSConfig
	Snow      SnowConfig
	Telemetry TelemetryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Stage                 string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	ClientTimeoutSeconds  int
	CommentSystemLabel    string
}

// ParamStoreConfig selects the secret/config provider backend.
type ParamStoreConfig struct {
	// Backend is one of "ssm", "redis" or "memory".
	Backend string
	// AgeIdentity is the AGE-SECRET-KEY used to seal secure values when
	// the redis backend is selected.
	AgeIdentity string
	// SeedFile is a JSON object of name to value loaded into the memory
	// backend at startup.
	SeedFile string
}

// PostgresConfig holds DB connection values for the link registry.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines inbound authentication for the standalone server.
// An empty secret disables the check.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// AWSConfig holds object storage settings.
type AWSConfig struct {
	Region          string
	S3Endpoint      string
	AccessKeyID     string
	SecretAccessKey string
	JSDBucket       string
	SnowBucket      string
	PresignBucket   string
}

// SnowConfig carries system-constant values stamped onto ServiceNow
// payloads plus the token refresh policy.
type SnowConfig struct {
	CallingSystem         string
	ReportedSource        string
	ConfigurationItem     string
	Caller                string
	CallerNumber          string
	TokenRefreshMarginSec int
}

// TelemetryConfig toggles OpenTelemetry metrics.
type TelemetryConfig struct {
	Enabled bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	stage := os.Getenv("Stage")
	if stage == "" {
		stage = getEnv("STAGE", "dev")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "snowsync"),
			Stage:                 stage,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			ClientTimeoutSeconds:  getEnvAsInt("HTTP_CLIENT_TIMEOUT_SECONDS", 30),
			CommentSystemLabel:    getEnv("COMMENT_SYSTEM_LABEL", "ServiceNow"),
		},
		Params: ParamStoreConfig{
			Backend:     getEnv("PARAM_STORE_BACKEND", "ssm"),
			AgeIdentity: os.Getenv("PARAM_STORE_AGE_IDENTITY"),
			SeedFile:    os.Getenv("PARAM_STORE_SEED_FILE"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 0)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", false),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "snowsync:param"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			S3Endpoint:      os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			JSDBucket:       os.Getenv("S3_JSD_BUCKET"),
			SnowBucket:      os.Getenv("S3_SNOW_BUCKET"),
			PresignBucket:   getEnv("S3_BUCKET", os.Getenv("S3_PRESIGN_BUCKET")),
		},
		Snow: SnowConfig{
			CallingSystem:         getEnv("SNOW_CALLING_SYSTEM", "FINEOS-SERVICE-DESK"),
			ReportedSource:        getEnv("SNOW_REPORTED_SOURCE", "FINEOS"),
			ConfigurationItem:     getEnv("SNOW_CONFIGURATION_ITEM", "11835"),
			Caller:                getEnv("SNOW_CALLER", "FINEOS SERVICE DESK"),
			CallerNumber:          getEnv("SNOW_CALLER_NUMBER", "1-899-898989"),
			TokenRefreshMarginSec: getEnvAsInt("SNOW_TOKEN_REFRESH_MARGIN", 30),
		},
		Telemetry: TelemetryConfig{
			Enabled: getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ClientTimeout is the ceiling applied to every outbound ticketing call.
func (a AppConfig) ClientTimeout() time.Duration {
	if a.ClientTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.ClientTimeoutSeconds) * time.Second
}

// TokenRefreshMargin is how long before expiry a cached token is replaced.
// Zero means a token is reused until it has actually expired.
func (s SnowConfig) TokenRefreshMargin() time.Duration {
	if s.TokenRefreshMarginSec < 0 {
		return 0
	}
	return time.Duration(s.TokenRefreshMarginSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
