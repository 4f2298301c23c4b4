package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	// HTTP Server
	Port string
	// AuthHeader carries the user id set by the upstream identity provider.
	AuthHeader         string
	RateLimitPerMinute int
	DefaultListLimit   int

	// Database
	SQLiteDBPath      string
	SQLiteBusyTimeout time.Duration

	LogLevel string

	// AMQP, optional. Without it ledger events are not published.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Statistics
	StatsCacheTTL time.Duration
	StatsTimezone string

	// Google Sheets mirror, enabled by GoogleSpreadsheetID
	GoogleSpreadsheetID       string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleApplicationCredFile string
	// OAuth user credentials, used when no service account is configured
	GoogleOAuthClientJSON string
	GoogleOAuthClientFile string
	GoogleOAuthTokenJSON  string
	GoogleOAuthTokenFile  string
	MirrorInterval        time.Duration

	BcryptCost int
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		AuthHeader:         getEnv("AUTH_HEADER", "X-User-ID"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		DefaultListLimit:   getEnvInt("DEFAULT_LIST_LIMIT", 10),

		SQLiteDBPath:      getEnv("SQLITE_DB_PATH", "./data/myduid.db"),
		SQLiteBusyTimeout: getEnvDuration("SQLITE_BUSY_TIMEOUT", 5*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "myduid"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		StatsCacheTTL: getEnvDuration("STATS_CACHE_TTL", 30*time.Second),
		StatsTimezone: getEnv("STATS_TIMEZONE", "UTC"),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationCredFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleOAuthClientJSON:     getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthClientFile:     getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenJSON:      getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),
		GoogleOAuthTokenFile:      getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		MirrorInterval:            getEnvDuration("MIRROR_INTERVAL", 5*time.Minute),

		BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),
	}
}

// Location resolves StatsTimezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MirrorEnabled reports whether a spreadsheet mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return strings.TrimSpace(c.GoogleSpreadsheetID) != ""
}

func (c *Config) hasServiceAccount() bool {
	return c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" || c.GoogleApplicationCredFile != ""
}

func (c *Config) hasOAuthCredentials() bool {
	return (c.GoogleOAuthClientJSON != "" || c.GoogleOAuthClientFile != "") &&
		(c.GoogleOAuthTokenJSON != "" || c.GoogleOAuthTokenFile != "")
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.AuthHeader) == "" {
		errors = append(errors, "auth header name cannot be empty")
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.DefaultListLimit < 1 || c.DefaultListLimit > 1000 {
		errors = append(errors, fmt.Sprintf("invalid default list limit %d: must be between 1 and 1000", c.DefaultListLimit))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if c.SQLiteDBPath != ":memory:" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}
	if c.SQLiteBusyTimeout < 0 || c.SQLiteBusyTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid SQLite busy timeout %v: must be between 0 and 1 minute", c.SQLiteBusyTimeout))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
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

	if c.StatsCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid stats cache TTL %v: must not be negative", c.StatsCacheTTL))
	}
	if _, err := time.LoadLocation(c.StatsTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid stats timezone '%s': %v", c.StatsTimezone, err))
	}

	if c.MirrorEnabled() {
		if !c.hasServiceAccount() && !c.hasOAuthCredentials() {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or an OAuth client and token is required when GOOGLE_SPREADSHEET_ID is set")
		}
		for _, f := range []struct{ what, path string }{
			{"service account", c.GoogleServiceAccountFile},
			{"OAuth client", c.GoogleOAuthClientFile},
			{"OAuth token", c.GoogleOAuthTokenFile},
		} {
			if f.path == "" {
				continue
			}
			if _, err := os.Stat(f.path); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google %s file does not exist: %s", f.what, f.path))
			}
		}
	}
	if c.MirrorInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errors = append(errors, fmt.Sprintf("invalid bcrypt cost %d: must be between %d and %d", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
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
