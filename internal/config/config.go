// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Config holds application configuration
type Config struct {
	DataDir           string // Base directory for the cache database and logs (always absolute)
	DataSource        string // Path, http(s) URL or s3:// URI of the CSV/XLSX export
	ChartDefinition   string // Optional YAML chart definition file
	ReloadSchedule    string // Optional cron expression (with seconds); empty disables reloads
	LogLevel          string
	LogPretty         bool
	LogMaxAgeDays     int
	Port              int
	DevMode           bool
	FrameCacheEnabled bool
	ResizeMaxRate     float64 // Resize notifications per second per viewer; 0 disables throttling
	ResizeBurst       int
	FetchTimeout      time.Duration
	S3                S3Config
}

// S3Config holds credentials and endpoint overrides for s3:// data sources
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	PathStyle       bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("RATECHART_DATA_DIR", "./.ratechart"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		DataSource:        getEnv("DATA_SOURCE", "data/fredgraph.csv"),
		ChartDefinition:   getEnv("CHART_DEFINITION", ""),
		ReloadSchedule:    getEnv("RELOAD_SCHEDULE", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", true),
		LogMaxAgeDays:     getEnvAsInt("LOG_MAX_AGE_DAYS", 14),
		Port:              getEnvAsInt("PORT", 8080),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		FrameCacheEnabled: getEnvAsBool("FRAME_CACHE_ENABLED", true),
		ResizeMaxRate:     getEnvAsFloat("RESIZE_MAX_RATE", 10),
		ResizeBurst:       getEnvAsInt("RESIZE_BURST", 1),
		FetchTimeout:      time.Duration(getEnvAsInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		S3:                LoadS3Config(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LogFile is the rotating log file inside the data directory
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir(), "ratechart.log")
}

// LogDir is the directory holding log files
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// CacheDBPath is the location of the frame cache database
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port)
	}
	if c.DataSource == "" {
		return fmt.Errorf("DATA_SOURCE is required")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.ResizeMaxRate < 0 {
		return fmt.Errorf("invalid RESIZE_MAX_RATE %v: must not be negative", c.ResizeMaxRate)
	}
	if c.ResizeBurst < 1 {
		return fmt.Errorf("invalid RESIZE_BURST %d: must be at least 1", c.ResizeBurst)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("invalid FETCH_TIMEOUT_SECONDS: must be positive")
	}
	if c.LogMaxAgeDays < 0 {
		return fmt.Errorf("invalid LOG_MAX_AGE_DAYS %d: must not be negative", c.LogMaxAgeDays)
	}
	if c.ReloadSchedule != "" {
		if _, err := scheduleParser.Parse(c.ReloadSchedule); err != nil {
			return fmt.Errorf("invalid RELOAD_SCHEDULE %q: %w", c.ReloadSchedule, err)
		}
	}
	return nil
}

// LoadS3Config reads the s3 settings shared by the server and the render CLI
func LoadS3Config() S3Config {
	return S3Config{
		Region:          getEnv("AWS_REGION", ""),
		AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		Endpoint:        getEnv("S3_ENDPOINT", ""),
		PathStyle:       getEnvAsBool("S3_PATH_STYLE", false),
	}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
