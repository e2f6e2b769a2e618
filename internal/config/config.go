package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Classifier   ClassifierConfig
	Routing      RoutingConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                   string
	Env                    string
	Host                   string
	Port                   string
	Version                string
	RequestTimeoutSeconds  int
	PipelineTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
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
	Addr          string
	Password      string
	DB            int
	StatusTTLMins int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines optional webhook credentials. When both fields are
// empty the ingest endpoints are open.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	APIKeyHash            string
}

// ClassifierConfig configures the AI classification backend.
type ClassifierConfig struct {
	APIKey         string
	Model          string
	Enabled        bool
	CacheSize      int
	TimeoutSeconds int
}

// RoutingConfig configures the outbound HTTP client, retry policy and
// circuit breaker for the routing layer.
type RoutingConfig struct {
	ConnectTimeoutSeconds   int
	ReadTimeoutSeconds      int
	WriteTimeoutSeconds     int
	PoolTimeoutSeconds      int
	MaxConnections          int
	MaxIdleConnections      int
	KeepAliveSeconds        int
	RetryMaxAttempts        int
	RetryBaseSeconds        int
	RetryMaxSeconds         int
	BreakerFailureThreshold int
	BreakerCooldownSeconds  int
	UserAgent               string
	JiraToken               string
	FreshserviceToken       string
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                   getEnv("APP_NAME", "ticket-triage-service"),
			Env:                    getEnv("APP_ENV", "development"),
			Host:                   getEnv("APP_HOST", "0.0.0.0"),
			Port:                   getEnv("APP_PORT", "8080"),
			Version:                getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds:  getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			PipelineTimeoutSeconds: getEnvAsInt("PIPELINE_TIMEOUT_SECONDS", 300),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			StatusTTLMins: getEnvAsInt("REDIS_STATUS_TTL_MINUTES", 60),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			APIKeyHash:            os.Getenv("WEBHOOK_API_KEY_HASH"),
		},
		Classifier: ClassifierConfig{
			APIKey:         os.Getenv("GOOGLE_API_KEY"),
			Model:          getEnv("CLASSIFIER_MODEL", "gemini-1.5-pro"),
			Enabled:        getEnvAsBool("CLASSIFIER_ENABLED", true),
			CacheSize:      getEnvAsInt("CLASSIFIER_CACHE_SIZE", 1024),
			TimeoutSeconds: getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 30),
		},
		Routing: RoutingConfig{
			ConnectTimeoutSeconds:   getEnvAsInt("ROUTING_CONNECT_TIMEOUT_SECONDS", 10),
			ReadTimeoutSeconds:      getEnvAsInt("ROUTING_READ_TIMEOUT_SECONDS", 30),
			WriteTimeoutSeconds:     getEnvAsInt("ROUTING_WRITE_TIMEOUT_SECONDS", 10),
			PoolTimeoutSeconds:      getEnvAsInt("ROUTING_POOL_TIMEOUT_SECONDS", 5),
			MaxConnections:          getEnvAsInt("ROUTING_MAX_CONNECTIONS", 100),
			MaxIdleConnections:      getEnvAsInt("ROUTING_MAX_IDLE_CONNECTIONS", 20),
			KeepAliveSeconds:        getEnvAsInt("ROUTING_KEEPALIVE_SECONDS", 30),
			RetryMaxAttempts:        getEnvAsInt("ROUTING_RETRY_MAX_ATTEMPTS", 3),
			RetryBaseSeconds:        getEnvAsInt("ROUTING_RETRY_BASE_SECONDS", 1),
			RetryMaxSeconds:         getEnvAsInt("ROUTING_RETRY_MAX_SECONDS", 60),
			BreakerFailureThreshold: getEnvAsInt("ROUTING_BREAKER_FAILURE_THRESHOLD", 5),
			BreakerCooldownSeconds:  getEnvAsInt("ROUTING_BREAKER_COOLDOWN_SECONDS", 300),
			UserAgent:               getEnv("ROUTING_USER_AGENT", "TicketTriageAgent/1.0"),
			JiraToken:               os.Getenv("JIRA_TOKEN"),
			FreshserviceToken:       os.Getenv("FRESHSERVICE_TOKEN"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", ""),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
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

// PipelineTimeout bounds one ticket's background pipeline.
func (a AppConfig) PipelineTimeout() time.Duration {
	if a.PipelineTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(a.PipelineTimeoutSeconds) * time.Second
}

// StatusTTL returns how long ticket status documents stay cached.
func (r RedisConfig) StatusTTL() time.Duration {
	if r.StatusTTLMins <= 0 {
		return time.Hour
	}
	return time.Duration(r.StatusTTLMins) * time.Minute
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
