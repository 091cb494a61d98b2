// Package config provides configuration management for the tick
// aggregator. Configuration is loaded from a JSON file with
// environment variable overrides and validated before use.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/tickdata/go-tick-aggregator/internal/request"
)

// AppConfig represents the complete application configuration.
type AppConfig struct {
	// DataDir is the directory holding the raw tick CSV files.
	DataDir string `json:"data_dir" env:"TICKAGG_DATA_DIR"`

	// OutputDir is where exported bar CSV files are written.
	OutputDir string `json:"output_dir" env:"TICKAGG_OUTPUT_DIR"`

	Loader  LoaderConfig  `json:"loader"`
	Session SessionConfig `json:"session"`
	Storage StorageConfig `json:"storage"`
	Logging LoggingConfig `json:"logging"`
}

// LoaderConfig configures the concurrent file loader.
type LoaderConfig struct {
	Workers        int    `json:"workers" env:"TICKAGG_WORKERS"`                   // Number of files read concurrently
	FilesPerSecond int    `json:"files_per_second" env:"TICKAGG_FILES_PER_SECOND"` // File-open throttle, 0 disables
	MaxRetries     uint64 `json:"max_retries" env:"TICKAGG_MAX_RETRIES"`           // Retry attempts for transient read failures
}

// SessionConfig configures the trading session window.
type SessionConfig struct {
	Open     string `json:"open" env:"TICKAGG_SESSION_OPEN"`        // Session open, "HH:MM"
	Close    string `json:"close" env:"TICKAGG_SESSION_CLOSE"`      // Session close, "HH:MM"
	Timezone string `json:"timezone" env:"TICKAGG_SESSION_TIMEZONE"` // Reference timezone name
}

// StorageConfig configures the optional bar persistence sink.
type StorageConfig struct {
	Type string `json:"type" env:"TICKAGG_STORAGE_TYPE"` // "none", "memory", "duckdb"
	Path string `json:"path" env:"TICKAGG_STORAGE_PATH"` // DuckDB database path
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level      string `json:"level" env:"TICKAGG_LOG_LEVEL"`    // debug, info, warn, error
	Format     string `json:"format" env:"TICKAGG_LOG_FORMAT"`  // json, text
	Output     string `json:"output" env:"TICKAGG_LOG_OUTPUT"`  // stdout, stderr, file
	FilePath   string `json:"file_path" env:"TICKAGG_LOG_FILE"` // Log file path when output is "file"
	MaxSize    int    `json:"max_size"`                         // Maximum log file size in MB
	MaxBackups int    `json:"max_backups"`                      // Maximum rotated file count
	MaxAge     int    `json:"max_age"`                          // Maximum rotated file age in days
	Compress   bool   `json:"compress"`                         // Compress rotated files
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		DataDir:   "data",
		OutputDir: "out",
		Loader: LoaderConfig{
			Workers:    4,
			MaxRetries: 3,
		},
		Session: SessionConfig{
			Open:     "09:30",
			Close:    "16:00",
			Timezone: "UTC",
		},
		Storage: StorageConfig{
			Type: "none",
			Path: "bars.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   "tickagg.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load builds the configuration with priority order: environment
// variables over the JSON config file over defaults. An empty path
// skips the file stage.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays values from a JSON config file. A missing file
// is not an error; defaults apply.
func loadFromFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overlays values from environment variables.
func loadFromEnv(cfg *AppConfig) {
	setString(&cfg.DataDir, "TICKAGG_DATA_DIR")
	setString(&cfg.OutputDir, "TICKAGG_OUTPUT_DIR")
	setInt(&cfg.Loader.Workers, "TICKAGG_WORKERS")
	setInt(&cfg.Loader.FilesPerSecond, "TICKAGG_FILES_PER_SECOND")
	setString(&cfg.Session.Open, "TICKAGG_SESSION_OPEN")
	setString(&cfg.Session.Close, "TICKAGG_SESSION_CLOSE")
	setString(&cfg.Session.Timezone, "TICKAGG_SESSION_TIMEZONE")
	setString(&cfg.Storage.Type, "TICKAGG_STORAGE_TYPE")
	setString(&cfg.Storage.Path, "TICKAGG_STORAGE_PATH")
	setString(&cfg.Logging.Level, "TICKAGG_LOG_LEVEL")
	setString(&cfg.Logging.Format, "TICKAGG_LOG_FORMAT")
	setString(&cfg.Logging.Output, "TICKAGG_LOG_OUTPUT")
	setString(&cfg.Logging.FilePath, "TICKAGG_LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate checks the configuration for consistency.
func (c *AppConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.Loader.Workers <= 0 {
		return fmt.Errorf("loader workers must be positive, got %d", c.Loader.Workers)
	}

	switch c.Storage.Type {
	case "none", "memory", "duckdb":
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}
	if c.Storage.Type == "duckdb" && c.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty for duckdb storage")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "stdout", "stderr", "file":
	default:
		return fmt.Errorf("unknown log output %q", c.Logging.Output)
	}

	if _, err := c.TradingSession(); err != nil {
		return err
	}
	return nil
}

// TradingSession converts the session section into a request.Session.
func (c *AppConfig) TradingSession() (request.Session, error) {
	open, err := parseClock(c.Session.Open)
	if err != nil {
		return request.Session{}, fmt.Errorf("invalid session open: %w", err)
	}
	close, err := parseClock(c.Session.Close)
	if err != nil {
		return request.Session{}, fmt.Errorf("invalid session close: %w", err)
	}
	if close <= open {
		return request.Session{}, fmt.Errorf("session close %s must be after open %s", c.Session.Close, c.Session.Open)
	}

	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return request.Session{}, fmt.Errorf("invalid session timezone %q: %w", c.Session.Timezone, err)
	}

	return request.Session{Open: open, Close: close, Location: loc}, nil
}

// parseClock converts "HH:MM" into an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
