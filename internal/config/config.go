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
	SLA          SLAConfig
	Assignment   AssignmentConfig
	Scheduler    SchedulerConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	RunMigrations   bool
	ConnMaxIdleSec  int32
	ConnMaxLifeSec  int32
	StoreTimeoutSec int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters for the operator API.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// SLAConfig holds operator-supplied response windows keyed by temperature.
// Load enforces hot <= warm <= cold.
type SLAConfig struct {
	HotWindow  time.Duration
	WarmWindow time.Duration
	ColdWindow time.Duration
}

// AssignmentConfig controls agent selection.
type AssignmentConfig struct {
	DefaultAgentCapacity int
}

// SchedulerConfig controls the overdue-scan worker.
type SchedulerConfig struct {
	ScanInterval    time.Duration
	MaxTier         int
	Concurrency     int
	Queue           string
	ScanParallelism int
}

// NotificationConfig holds notification queue settings.
type NotificationConfig struct {
	QueueKey string
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
			Name:                  getEnv("APP_NAME", "lead-router"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxConns:        int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:        int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:   getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:  int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			StoreTimeoutSec: getEnvAsInt("STORE_TIMEOUT_SECONDS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		SLA: SLAConfig{
			HotWindow:  getEnvAsDuration("SLA_HOT_WINDOW", 5*time.Minute),
			WarmWindow: getEnvAsDuration("SLA_WARM_WINDOW", 30*time.Minute),
			ColdWindow: getEnvAsDuration("SLA_COLD_WINDOW", 4*time.Hour),
		},
		Assignment: AssignmentConfig{
			DefaultAgentCapacity: getEnvAsInt("AGENT_DEFAULT_CAPACITY", 10),
		},
		Scheduler: SchedulerConfig{
			ScanInterval:    getEnvAsDuration("OVERDUE_SCAN_INTERVAL", time.Minute),
			MaxTier:         getEnvAsInt("ESCALATION_MAX_TIER", 3),
			Concurrency:     getEnvAsInt("SCHEDULER_CONCURRENCY", 10),
			Queue:           getEnv("SCHEDULER_QUEUE", "leads"),
			ScanParallelism: getEnvAsInt("OVERDUE_SCAN_PARALLELISM", 4),
		},
		Notification: NotificationConfig{
			QueueKey: getEnv("NOTIFY_QUEUE_KEY", "lead-router:notifications"),
		},
	}

	if err := cfg.SLA.Validate(); err != nil {
		return nil, err
	}
	if cfg.Scheduler.MaxTier < 1 {
		return nil, fmt.Errorf("ESCALATION_MAX_TIER must be at least 1")
	}
	if cfg.Assignment.DefaultAgentCapacity < 1 {
		return nil, fmt.Errorf("AGENT_DEFAULT_CAPACITY must be at least 1")
	}

	return cfg, nil
}

// Validate enforces the relative ordering of the response windows.
func (s SLAConfig) Validate() error {
	if s.HotWindow <= 0 || s.WarmWindow <= 0 || s.ColdWindow <= 0 {
		return fmt.Errorf("sla windows must be positive")
	}
	if s.HotWindow > s.WarmWindow || s.WarmWindow > s.ColdWindow {
		return fmt.Errorf("sla windows must satisfy hot <= warm <= cold")
	}
	return nil
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

// StoreTimeout bounds individual engine operations against the store.
func (p PostgresConfig) StoreTimeout() time.Duration {
	if p.StoreTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.StoreTimeoutSec) * time.Second
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
