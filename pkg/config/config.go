package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External data providers
	Providers ProviderConfig

	// Analysis pipeline
	Analysis AnalysisConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ProviderConfig holds external data provider endpoints and throttling.
type ProviderConfig struct {
	SeriesBaseURL     string
	NewsBaseURL       string
	RequestsPerSecond float64
	RequestBurst      int
	Timeout           time.Duration
}

// AnalysisConfig holds pipeline tuning parameters.
type AnalysisConfig struct {
	MaxConcurrency     int
	ChunkSize          int
	ChunkPause         time.Duration
	CacheTTL           time.Duration
	GuardrailEnabled   bool
	ReplacementEnabled bool
	DataMode           string // "live" or "cached"

	UniverseFile     string   // JSON instrument list
	BenchmarkSymbols []string // index members for breadth
	Schedule         string   // cron expression for the daily job
}

// Load reads configuration from environment variables.
// Only this function calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Providers: ProviderConfig{
			SeriesBaseURL:     getEnv("SERIES_BASE_URL", "https://query1.finance.example.com"),
			NewsBaseURL:       getEnv("NEWS_BASE_URL", "https://news.finance.example.com"),
			RequestsPerSecond: getEnvAsFloat("PROVIDER_RPS", 4.0),
			RequestBurst:      getEnvAsInt("PROVIDER_BURST", 8),
			Timeout:           getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
		},

		Analysis: AnalysisConfig{
			MaxConcurrency:     getEnvAsInt("ANALYSIS_MAX_CONCURRENCY", 0), // 0 = derive from cores
			ChunkSize:          getEnvAsInt("ANALYSIS_CHUNK_SIZE", 25),
			ChunkPause:         getEnvAsDuration("ANALYSIS_CHUNK_PAUSE", "150ms"),
			CacheTTL:           getEnvAsDuration("ANALYSIS_CACHE_TTL", "1h"),
			GuardrailEnabled:   getEnvAsBool("ANALYSIS_GUARDRAIL_ENABLED", true),
			ReplacementEnabled: getEnvAsBool("ANALYSIS_REPLACEMENT_ENABLED", true),
			DataMode:           getEnv("ANALYSIS_DATA_MODE", "live"),
			UniverseFile:       getEnv("ANALYSIS_UNIVERSE_FILE", "universe.json"),
			BenchmarkSymbols:   getEnvAsSlice("ANALYSIS_BENCHMARK_SYMBOLS", nil),
			Schedule:           getEnv("ANALYSIS_SCHEDULE", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks required configuration values.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Analysis.ChunkSize <= 0 {
		return fmt.Errorf("ANALYSIS_CHUNK_SIZE must be positive")
	}

	if c.Analysis.DataMode != "live" && c.Analysis.DataMode != "cached" {
		return fmt.Errorf("ANALYSIS_DATA_MODE must be live or cached")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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
