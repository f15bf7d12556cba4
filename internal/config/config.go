package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	S3          S3Config
	Import      ImportConfig
	Scheduler   SchedulerConfig
	WeeklyGoals WeeklyGoalsConfig
	Outbound    OutboundConfig
	LLM         LLMConfig
	Mailer      MailerConfig
	FrontendURL string
	Calendar    CalendarConfig
	Sentry      SentryConfig
}

// ImportConfig holds the import worker's fixed dynamic-named-parameters
// (spec §9 "Dynamic named parameters" — no overrides in core paths).
type ImportConfig struct {
	BatchSize          int
	HeartbeatIntervalS int
	OrphanTimeoutS     int
	MaxAttempts        int
	RetryBackoffS      map[int]int
	ConflictTTLDays    int
}

// SchedulerConfig holds the periodic driver's tick intervals (§4.4).
type SchedulerConfig struct {
	DispatchIntervalS          int
	ScrapeIntervalS            int
	NewsletterIntervalS        int
	WebinarIntervalS           int
	ReclassifyIntervalS        int
	ClassifierMetricsIntervalS int
}

// WeeklyGoalsConfig holds the quota driver's per-persona/section goals.
type WeeklyGoalsConfig struct {
	PerFinder int
	Total     int
}

// OutboundConfig holds tokens/base URLs for the narrow outbound
// collaborators (position search actor, HubSpot sync).
type OutboundConfig struct {
	ApifyToken     string
	ApifyActorID   string
	HubSpotToken   string
	HubSpotBaseURL string
}

// LLMConfig holds the Anthropic adapter's credentials.
type LLMConfig struct {
	AnthropicAPIKey string
	Model           string
}

// MailerConfig holds the Resend-backed Mailer collaborator's credentials.
type MailerConfig struct {
	APIKey        string
	FromAddress   string
	FromName      string
}

// CalendarConfig holds the Google Calendar adapter's OAuth credentials.
type CalendarConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

// SentryConfig holds the error-reporting client's credentials. An empty
// DSN leaves sentryhub running in no-op mode.
type SentryConfig struct {
	DSN         string
	Environment string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret   string
	RefreshSecret  string
	AccessExpiry   time.Duration
	RefreshExpiry  time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// S3Config holds S3 storage configuration
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "crmcore"),
			Password:        getEnv("DB_PASSWORD", "crmcore"),
			DBName:          getEnv("DB_NAME", "crmcore"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
			RefreshSecret:  getEnv("JWT_REFRESH_SECRET", ""),
			AccessExpiry:   getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry:  getEnvAsDuration("JWT_REFRESH_EXPIRY", 168*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Bucket:    getEnv("S3_BUCKET", ""),
			Region:    getEnv("S3_REGION", "eu-central"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Import: ImportConfig{
			BatchSize:          getEnvAsInt("IMPORT_BATCH_SIZE", 500),
			HeartbeatIntervalS: getEnvAsInt("IMPORT_HEARTBEAT_INTERVAL_S", 30),
			OrphanTimeoutS:     getEnvAsInt("IMPORT_ORPHAN_TIMEOUT_S", 300),
			MaxAttempts:        getEnvAsInt("IMPORT_MAX_ATTEMPTS", 3),
			RetryBackoffS:      map[int]int{1: 60, 2: 300},
			ConflictTTLDays:    getEnvAsInt("IMPORT_CONFLICT_TTL_DAYS", 90),
		},
		Scheduler: SchedulerConfig{
			DispatchIntervalS:          getEnvAsInt("SCHEDULER_DISPATCH_INTERVAL_S", 10),
			ScrapeIntervalS:            getEnvAsInt("SCHEDULER_SCRAPE_INTERVAL_S", 3600),
			NewsletterIntervalS:        getEnvAsInt("SCHEDULER_NEWSLETTER_INTERVAL_S", 900),
			WebinarIntervalS:           getEnvAsInt("SCHEDULER_WEBINAR_INTERVAL_S", 300),
			ReclassifyIntervalS:        getEnvAsInt("SCHEDULER_RECLASSIFY_INTERVAL_S", 30),
			ClassifierMetricsIntervalS: getEnvAsInt("SCHEDULER_CLASSIFIER_METRICS_INTERVAL_S", 21600),
		},
		WeeklyGoals: WeeklyGoalsConfig{
			PerFinder: getEnvAsInt("WEEKLY_GOAL_PER_FINDER", 50),
			Total:     getEnvAsInt("WEEKLY_GOAL_TOTAL", 150),
		},
		Outbound: OutboundConfig{
			ApifyToken:     getEnv("APIFY_TOKEN", ""),
			ApifyActorID:   getEnv("APIFY_ACTOR_ID", ""),
			HubSpotToken:   getEnv("HUBSPOT_TOKEN", ""),
			HubSpotBaseURL: getEnv("HUBSPOT_BASE_URL", "https://api.hubapi.com"),
		},
		LLM: LLMConfig{
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			Model:           getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		},
		Mailer: MailerConfig{
			APIKey:      getEnv("RESEND_API_KEY", ""),
			FromAddress: getEnv("MAILER_FROM_ADDRESS", "no-reply@example.com"),
			FromName:    getEnv("MAILER_FROM_NAME", "Leaderlix"),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		Calendar: CalendarConfig{
			ClientID:     getEnv("CALENDAR_CLIENT_ID", ""),
			ClientSecret: getEnv("CALENDAR_CLIENT_SECRET", ""),
			RefreshToken: getEnv("CALENDAR_REFRESH_TOKEN", ""),
			CalendarID:   getEnv("CALENDAR_ID", "primary"),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
		},
	}

	// Validate required fields
	if cfg.JWT.AccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("JWT_REFRESH_SECRET is required")
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
