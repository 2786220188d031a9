package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	Paths     PathsConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Unipile   UnipileConfig
	APIKeys   APIKeysConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
}

type PathsConfig struct {
	BaseDir  string
	Statics  string
	Storages string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

// SchedulerConfig carries the dispatch cadences and retry budget.
// Defaults match production values; tests inject smaller ones.
type SchedulerConfig struct {
	PollIntervalSec     int // fallback poller cadence
	SweepIntervalSec    int // distributed producer cadence
	SweepWindowSec      int // producer lookahead, longer than the interval so ticks overlap
	ImmediateHorizonSec int // eager-enqueue horizon on explicit schedule
	MaxRetries          int
	RetryBaseSec        int
	StalePublishingMin  int // re-claim threshold for stuck publishing items
}

type UnipileConfig struct {
	DSN    string
	APIKey string
}

type APIKeysConfig struct {
	Gemini string
	OpenAI string
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := getEnvBool("APP_DEBUG", getEnvBool("DEBUG", false))

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.3.0",
		Port:               getEnv("APP_PORT", "8000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:8000"),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Statics:  getEnv("PATH_STATICS", "statics"),
		Storages: baseDir,
	}

	dbCfg := DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "linkpilot.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "lpilot:"),
	}

	schedCfg := SchedulerConfig{
		PollIntervalSec:     getEnvInt("SCHEDULER_POLL_INTERVAL_SEC", 60),
		SweepIntervalSec:    getEnvInt("SCHEDULER_SWEEP_INTERVAL_SEC", 120),
		SweepWindowSec:      getEnvInt("SCHEDULER_SWEEP_WINDOW_SEC", 180),
		ImmediateHorizonSec: getEnvInt("SCHEDULER_IMMEDIATE_HORIZON_SEC", 300),
		MaxRetries:          getEnvInt("SCHEDULER_MAX_RETRIES", 3),
		RetryBaseSec:        getEnvInt("SCHEDULER_RETRY_BASE_SEC", 60),
		StalePublishingMin:  getEnvInt("SCHEDULER_STALE_PUBLISHING_MIN", 15),
	}

	cfg := &Config{
		App:       appCfg,
		Paths:     pathsCfg,
		Database:  dbCfg,
		Scheduler: schedCfg,
		Unipile: UnipileConfig{
			DSN:    getEnv("UNIPILE_DSN", "https://api1.unipile.com:13111"),
			APIKey: getEnv("UNIPILE_API_KEY", ""),
		},
		APIKeys: APIKeysConfig{
			Gemini: getEnv("GEMINI_API_KEY", ""),
			OpenAI: getEnv("OPENAI_API_KEY", ""),
		},
	}

	Global = cfg
	return cfg, nil
}
