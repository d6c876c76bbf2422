package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	applog "finman/internal/log"
	"finman/internal/storage"
)

// DefaultPath is where the connection file is looked up when no path is
// given.
const DefaultPath = "connectionConfig.json"

type Config struct {
	// Database connection
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`

	// Logging
	LogLevel      string `json:"-"`
	LogFile       string `json:"-"`
	LogMaxSizeMB  int    `json:"-"`
	LogMaxBackups int    `json:"-"`

	// Deadline for a single CLI command
	CommandTimeout time.Duration `json:"-"`
}

// Load reads the JSON connection file at path and applies environment
// overrides on top of it. A missing or malformed file is an error; the
// result still needs Validate.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connection file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse connection file %s: %w", path, err)
	}

	cfg.Host = getEnv("FINMAN_DB_HOST", cfg.Host)
	cfg.Port = getEnvInt("FINMAN_DB_PORT", cfg.Port)
	cfg.Database = getEnv("FINMAN_DB_NAME", cfg.Database)
	cfg.Username = getEnv("FINMAN_DB_USER", cfg.Username)
	cfg.Password = getEnv("FINMAN_DB_PASSWORD", cfg.Password)

	cfg.LogLevel = getEnv("FINMAN_LOG_LEVEL", "info")
	cfg.LogFile = getEnv("FINMAN_LOG_FILE", "")
	cfg.LogMaxSizeMB = getEnvInt("FINMAN_LOG_MAX_SIZE_MB", 10)
	cfg.LogMaxBackups = getEnvInt("FINMAN_LOG_MAX_BACKUPS", 3)
	cfg.CommandTimeout = getEnvDuration("FINMAN_COMMAND_TIMEOUT", 30*time.Second)

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate connection fields
	if c.Host == "" {
		errors = append(errors, "database host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.Database == "" {
		errors = append(errors, "database name is required")
	}
	if c.Username == "" {
		errors = append(errors, "database username is required")
	}

	// Validate logging
	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}
	if c.LogFile != "" {
		if c.LogMaxSizeMB < 1 {
			errors = append(errors, fmt.Sprintf("invalid log max size %d: must be at least 1 MB", c.LogMaxSizeMB))
		}
		if c.LogMaxBackups < 0 {
			errors = append(errors, fmt.Sprintf("invalid log max backups %d: must not be negative", c.LogMaxBackups))
		}
	}

	if c.CommandTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid command timeout %v: must be at least 1 second", c.CommandTimeout))
	} else if c.CommandTimeout > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid command timeout %v: must be at most 1 hour", c.CommandTimeout))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ConnParams converts the connection fields for the storage layer.
func (c *Config) ConnParams() storage.ConnParams {
	return storage.ConnParams{
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.Username,
		Password: c.Password,
	}
}

// LogConfig converts the logging fields for the log package.
func (c *Config) LogConfig(component string) applog.Config {
	lc := applog.DefaultConfig()
	lc.Level = applog.ParseLevel(c.LogLevel)
	lc.Component = component
	lc.File = c.LogFile
	lc.MaxSizeMB = c.LogMaxSizeMB
	lc.MaxBackups = c.LogMaxBackups
	return lc
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
