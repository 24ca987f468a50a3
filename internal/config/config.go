package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends and import sources accepted by Validate.
var (
	ValidBackends      = []string{"memory", "sqlite", "redis", "postgres"}
	ValidImportSources = []string{"sheety", "sheets", "memory", "none"}
)

type Config struct {
	// HTTP Server
	Port       string
	CORSOrigin string

	// Logging
	LogLevel  string
	LogFormat string

	// Storage
	DataBackend  string
	DataDir      string
	SQLiteDBPath string
	RedisURL     string
	RedisPrefix  string
	DatabaseURL  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Import
	ImportSource   string
	SheetyURL      string
	SheetyField    string
	ImportTimeout  time.Duration
	ImportInterval time.Duration
	ImportLockTTL  time.Duration

	// Google Sheets import source
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Chat assistant
	ChatAPIKey  string
	ChatBaseURL string
	ChatModel   string

	// Google sign-in
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	SessionTTL         time.Duration

	// HTTP cache for dashboard views
	CacheSize int
	CacheTTL  time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		CORSOrigin: getEnv("CORS_ORIGIN", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rupaiya.db"),
		RedisURL:     getEnv("REDIS_URL", ""),
		RedisPrefix:  getEnv("REDIS_PREFIX", "rupaiya"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "rupaiya"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		ImportSource:   getEnv("IMPORT_SOURCE", "sheety"),
		SheetyURL:      getEnv("SHEETY_URL", "https://api.sheety.co/77ccbae9ae41b8a3c560ca1d5caa7b1e/sampleUpload/sheet1"),
		SheetyField:    getEnv("SHEETY_FIELD", "sheet1"),
		ImportTimeout:  getEnvDuration("IMPORT_TIMEOUT", 15*time.Second),
		ImportInterval: getEnvDuration("IMPORT_INTERVAL", 0),
		ImportLockTTL:  getEnvDuration("IMPORT_LOCK_TTL", 2*time.Minute),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "sheet1"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ChatAPIKey:  getEnv("CHAT_API_KEY", os.Getenv("GROQ_API_KEY")),
		ChatBaseURL: getEnv("CHAT_BASE_URL", "https://api.groq.com/openai/v1"),
		ChatModel:   getEnv("CHAT_MODEL", "llama3-8b-8192"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		SessionTTL:         getEnvDuration("SESSION_TTL", 24*time.Hour),

		CacheSize: getEnvInt("CACHE_SIZE", 256),
		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
	}
	return cfg
}

// AuthEnabled reports whether Google sign-in gates the API.
func (c *Config) AuthEnabled() bool {
	return c.GoogleClientID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(ValidBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, ValidBackends))
	}
	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "redis":
		if c.RedisURL == "" {
			errors = append(errors, "REDIS_URL is required when using redis backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(ValidImportSources, c.ImportSource) {
		errors = append(errors, fmt.Sprintf("invalid import source '%s': must be one of %v", c.ImportSource, ValidImportSources))
	}
	switch c.ImportSource {
	case "sheety":
		if u, err := url.Parse(c.SheetyURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid SHEETY_URL '%s': must be an http(s) URL", c.SheetyURL))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SPREADSHEET_ID is required when using sheets import source")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets import source")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}
	if c.ImportTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid import timeout %v: must be at least 1 second", c.ImportTimeout))
	}
	if c.ImportInterval != 0 && c.ImportInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid import interval %v: must be 0 (disabled) or at least 1 minute", c.ImportInterval))
	}

	if c.ChatBaseURL != "" {
		if _, err := url.Parse(c.ChatBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid CHAT_BASE_URL '%s': %v", c.ChatBaseURL, err))
		}
	}

	if c.AuthEnabled() {
		if c.GoogleClientSecret == "" {
			errors = append(errors, "GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set")
		}
		if _, err := url.ParseRequestURI(c.GoogleRedirectURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid GOOGLE_REDIRECT_URL '%s'", c.GoogleRedirectURL))
		}
		if c.SessionTTL < time.Minute {
			errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
		}
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
