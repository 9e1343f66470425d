package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the batch jobs
// ⭐ SSOT: all environment variables are read here and nowhere else
type Config struct {
	Env string // development, staging, production

	Database DatabaseConfig
	Sources  SourceConfig
	Schedule ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Read API
	APIPort string

	// Metrics (Prometheus Pushgateway, empty = disabled)
	PushgatewayURL string
}

// DatabaseConfig holds the destination store configuration
type DatabaseConfig struct {
	Driver string // postgres, sqlite

	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// SQLite file path (Driver == "sqlite")
	SQLitePath string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SourceConfig holds the external data source settings
type SourceConfig struct {
	ConstituentsURL string
	MarketSuffix    string
	UserAgent       string
	YahooBaseURL    string

	FetchWorkers    int
	FetchRatePerSec float64
	HTTPTimeout     time.Duration
}

// ScheduleConfig holds cron expressions (with seconds) for each job
type ScheduleConfig struct {
	Yearly  string
	Monthly string
	Refresh string
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "stocks"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", getEnv("DB_PASS", "")),
			URL:             getEnv("DATABASE_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "data/niftyjobs.db"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 4),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Sources: SourceConfig{
			ConstituentsURL: getEnv("NIFTY_CSV_URL", "https://www.niftyindices.com/IndexConstituent/ind_nifty50list.csv"),
			MarketSuffix:    getEnv("MARKET_SUFFIX", ".NS"),
			UserAgent:       getEnv("HTTP_USER_AGENT", "Mozilla/5.0"),
			YahooBaseURL:    getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			FetchWorkers:    getEnvAsInt("FETCH_WORKERS", 8),
			FetchRatePerSec: getEnvAsFloat("FETCH_RATE_PER_SEC", 5),
			HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", "30s"),
		},

		Schedule: ScheduleConfig{
			Yearly:  getEnv("CRON_YEARLY", "0 0 2 1 1 *"),      // Jan 1st, 02:00
			Monthly: getEnv("CRON_MONTHLY", "0 0 2 1 * *"),     // 1st of month, 02:00
			Refresh: getEnv("CRON_REFRESH", "0 30 16 * * 1-5"), // weekdays after close
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		APIPort: getEnv("API_PORT", "8089"),

		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("DATABASE_URL or DB_HOST is required for the postgres driver")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: postgres, sqlite")
	}

	if c.Sources.FetchWorkers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be at least 1")
	}

	return nil
}

// PostgresURL returns DATABASE_URL, or builds one from the discrete DB_* settings
func (d DatabaseConfig) PostgresURL() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	return u.String()
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
