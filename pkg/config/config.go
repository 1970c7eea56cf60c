package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Operator 실행자 식별 (산출물 파일명/저널에 기록)
	Operator string

	// Storage
	DataDir  string
	Database DatabaseConfig
	SQLite   SQLiteConfig

	// Redis
	Redis RedisConfig

	// Market data
	Yahoo YahooConfig

	// Risk defaults (CLI 플래그/프로파일이 덮어씀)
	Risk RiskDefaults

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
// URL이 비어 있으면 Postgres 저널은 비활성
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a Postgres URL was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// SQLiteConfig holds the local run journal location
type SQLiteConfig struct {
	Path string
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL     string
	Timeout     time.Duration
	RatePerSec  float64
	MaxRetries  int
	MinCoverage float64 // 요청 window 대비 최소 수익률 비율
}

// RiskDefaults 환경변수 기반 VaR 기본값
type RiskDefaults struct {
	Confidence  float64
	Horizon     int
	Window      int
	Simulations int
	Seed        int64
	Workers     int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Operator: getEnv("VAR_OPERATOR", currentUser()),

		DataDir: getEnv("DATA_DIR", "./data"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", ""),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "1h"),
		},

		Yahoo: YahooConfig{
			BaseURL:     getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			Timeout:     getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
			RatePerSec:  getEnvAsFloat("YAHOO_RATE_PER_SEC", 2),
			MaxRetries:  getEnvAsInt("YAHOO_MAX_RETRIES", 3),
			MinCoverage: getEnvAsFloat("MIN_COVERAGE", 0.90),
		},

		Risk: RiskDefaults{
			Confidence:  getEnvAsFloat("VAR_CONFIDENCE", 0.95),
			Horizon:     getEnvAsInt("VAR_HORIZON", 1),
			Window:      getEnvAsInt("VAR_WINDOW", 252),
			Simulations: getEnvAsInt("VAR_SIMULATIONS", 10000),
			Seed:        int64(getEnvAsInt("VAR_SEED", 0)),
			Workers:     getEnvAsInt("VAR_WORKERS", 1),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogFile:   getEnv("LOG_FILE", ""),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Yahoo.MinCoverage <= 0 || c.Yahoo.MinCoverage > 1 {
		return fmt.Errorf("MIN_COVERAGE must be in (0, 1], got %g", c.Yahoo.MinCoverage)
	}

	if c.Risk.Window <= 0 {
		return fmt.Errorf("VAR_WINDOW must be positive, got %d", c.Risk.Window)
	}

	if c.DataDir == "" {
		return fmt.Errorf("DATA_DIR must not be empty")
	}

	return nil
}

// Data directory layout
const (
	PortfoliosDir = "portfolios"
	ResultsDir    = "results"
	ReportsDir    = "reports"
	LogsDir       = "logs"
)

// Dir joins a data subdirectory onto DataDir.
func (c *Config) Dir(sub string) string {
	return filepath.Join(c.DataDir, sub)
}

// EnsureDirs creates DataDir and its subdirectories.
func (c *Config) EnsureDirs() error {
	for _, sub := range []string{PortfoliosDir, ResultsDir, ReportsDir, LogsDir} {
		if err := os.MkdirAll(c.Dir(sub), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", c.Dir(sub), err)
		}
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
