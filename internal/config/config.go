package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort   string `yaml:"port"`
	DatabaseType string `yaml:"database_type"`
	DatabasePath string `yaml:"db_path"`
	DatabaseURL  string `yaml:"database_url"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// RateLimit is the number of commands a single caller may issue per RateWindow
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`

	// Timezone decides which calendar day counts as "today"
	Timezone string `yaml:"timezone"`
}

// Default returns the configuration used when nothing else is provided
func Default() *Config {
	return &Config{
		ServerPort:   "8080",
		DatabaseType: "sqlite",
		DatabasePath: "./data.db",
		LogLevel:     "info",
		LogFormat:    "console",
		RateLimit:    30,
		RateWindow:   time.Minute,
		Timezone:     "Local",
	}
}

// Load reads configuration from an optional YAML file and then from environment
// variables, which take precedence. An empty or missing path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(content, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.ServerPort = getEnv("PORT", cfg.ServerPort)
	cfg.DatabaseType = getEnv("DATABASE_TYPE", cfg.DatabaseType)
	cfg.DatabasePath = getEnv("DB_PATH", cfg.DatabasePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.Timezone = getEnv("TIMEZONE", cfg.Timezone)

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q: %w", v, err)
		}
		cfg.RateLimit = n
	}
	if v := os.Getenv("RATE_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_WINDOW %q: %w", v, err)
		}
		cfg.RateWindow = d
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate ensures that the configuration is usable
func (c *Config) Validate() error {
	switch strings.ToLower(c.DatabaseType) {
	case "", "sqlite", "sqlite3":
		if c.DatabasePath == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres", "postgresql", "pgx", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	if c.RateLimit <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimit)
	}
	if c.RateWindow <= 0 {
		return fmt.Errorf("rate window must be positive, got %s", c.RateWindow)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves the configured time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
