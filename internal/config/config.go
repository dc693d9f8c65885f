package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "hlg-fitness-secret-change-in-production"

type Config struct {
	Environment string
	App         AppConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Log         LogConfig
	Storage     StorageConfig
	Scheduler   SchedulerConfig
	Telemetry   TelemetryConfig
	RateLimit   RateLimitConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Timezone    string
	CORSOrigins string
	SeedData    bool
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int // seconds
	LogLevel     string
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the parts.
func (c DatabaseConfig) DSN(timezone string) string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, timezone,
	)
}

type JWTConfig struct {
	Secret     string
	TTLHours   int
	CookieName string
}

type LogConfig struct {
	Level      string
	Mode       string // development | production
	FileEnable bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type StorageConfig struct {
	LocalDir        string
	PublicPrefix    string
	S3Bucket        string
	S3Region        string
	AccessKeyID     string
	SecretAccessKey string
}

// UseS3 reports whether uploads go to S3 instead of the local directory.
func (c StorageConfig) UseS3() bool {
	return c.S3Bucket != "" && c.AccessKeyID != ""
}

type SchedulerConfig struct {
	Enabled      bool
	LowStockCron string
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

type RateLimitConfig struct {
	LoginPerMinute int
	LoginBurst     int
}

func Load() (*Config, error) {
	// .env is optional; real environment wins
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("APP_ENV", "development"),
		App: AppConfig{
			Name:        getEnv("APP_NAME", "HLG Fitness Manager"),
			Port:        getEnv("PORT", "3000"),
			Timezone:    getEnv("APP_TIMEZONE", "America/Sao_Paulo"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			SeedData:    getEnvAsBool("SEED_DATA", true),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "hlg_fitness"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 3600),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", defaultJWTSecret),
			TTLHours:   getEnvAsInt("JWT_TTL_HOURS", 24),
			CookieName: getEnv("JWT_COOKIE_NAME", "hlg_session"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Mode:       getEnv("LOG_MODE", "development"),
			FileEnable: getEnvAsBool("LOG_FILE_ENABLE", false),
			Filename:   getEnv("LOG_FILE", "logs/hlg-fitness.log"),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 64),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 7),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 7),
		},
		Storage: StorageConfig{
			LocalDir:        getEnv("UPLOAD_DIR", "uploads"),
			PublicPrefix:    getEnv("UPLOAD_PUBLIC_PREFIX", "/uploads"),
			S3Bucket:        os.Getenv("AWS_S3_BUCKET"),
			S3Region:        getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getEnvAsBool("SCHEDULER_ENABLED", true),
			LowStockCron: getEnv("LOW_STOCK_DIGEST_CRON", "0 8 * * *"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "hlg-fitness-api"),
		},
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:     getEnvAsInt("LOGIN_RATE_BURST", 5),
		},
	}

	return cfg, cfg.Validate()
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	if c.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if c.IsProduction() && c.Database.URL == "" && c.Database.Password == "" {
		return errors.New("database password is required in production")
	}
	if c.JWT.TTLHours <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be positive, got %d", c.JWT.TTLHours)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
