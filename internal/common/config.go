package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Ollama      OllamaConfig    `toml:"ollama"`
	AI          AIConfig        `toml:"ai"`
	Scraper     ScraperConfig   `toml:"scraper"`
	Review      ReviewConfig    `toml:"review"`
	Retention   RetentionConfig `toml:"retention"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Setup       SetupConfig     `toml:"setup"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port" validate:"min=0,max=65535"`
}

// OllamaConfig points the AI pipeline at a local Ollama instance.
type OllamaConfig struct {
	Host           string `toml:"host" validate:"required,url"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"min=1"`
	Model          string `toml:"model"` // auto-selected at startup if empty
}

// AIConfig holds generation parameters for the CV pipeline.
type AIConfig struct {
	CVRewriteTemperature float64 `toml:"cv_rewrite_temperature" validate:"min=0,max=1"`
	CVSummaryTemperature float64 `toml:"cv_summary_temperature" validate:"min=0,max=1"`
	QualityScoreMinimum  float64 `toml:"quality_score_minimum" validate:"min=0,max=10"`
}

type ScraperConfig struct {
	DefaultDelayMin        float64 `toml:"default_delay_min" validate:"min=0"` // seconds
	DefaultDelayMax        float64 `toml:"default_delay_max" validate:"min=0"`
	SessionMaxMinutes      int     `toml:"session_max_minutes" validate:"min=1"`
	SessionMaxJobs         int     `toml:"session_max_jobs" validate:"min=1"`
	ConsecutiveZeroDisable int     `toml:"consecutive_zero_disable" validate:"min=1"`
}

// ReviewConfig bounds the human authorization window.
type ReviewConfig struct {
	TimeoutMinutes              int `toml:"timeout_minutes" validate:"min=1"`
	WarnMinutes                 int `toml:"warn_minutes" validate:"min=1"`
	SubmitConfirmTimeoutSeconds int `toml:"submit_confirm_timeout_seconds" validate:"min=1"`
}

// RetentionConfig controls the periodic data sweep (days).
type RetentionConfig struct {
	JobsDays           int `toml:"jobs_days" validate:"min=1"`
	ApplicationsDays   int `toml:"applications_days" validate:"min=1"`
	LogsDays           int `toml:"logs_days" validate:"min=1"`
	BackupsRollingDays int `toml:"backups_rolling_days" validate:"min=1"`
}

type StorageConfig struct {
	DataDir        string `toml:"data_dir"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// SetupConfig tracks first-run completion state.
type SetupConfig struct {
	Complete      bool   `toml:"complete"`
	TOSAcceptedAt string `toml:"tos_accepted_at"` // ISO timestamp
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Ollama: OllamaConfig{
			Host:           "http://localhost:11434",
			TimeoutSeconds: 120,
			Model:          "",
		},
		AI: AIConfig{
			CVRewriteTemperature: 0.3,
			CVSummaryTemperature: 0.5,
			QualityScoreMinimum:  7.0,
		},
		Scraper: ScraperConfig{
			DefaultDelayMin:        3.0,
			DefaultDelayMax:        8.0,
			SessionMaxMinutes:      45,
			SessionMaxJobs:         50,
			ConsecutiveZeroDisable: 5,
		},
		Review: ReviewConfig{
			TimeoutMinutes:              30,
			WarnMinutes:                 25,
			SubmitConfirmTimeoutSeconds: 10,
		},
		Retention: RetentionConfig{
			JobsDays:           90,
			ApplicationsDays:   365,
			LogsDays:           30,
			BackupsRollingDays: 7,
		},
		Storage: StorageConfig{
			DataDir:        "./data",
			ResetOnStartup: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration from a TOML file, applying defaults first
// and environment variable overrides last.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Scraper.DefaultDelayMax < c.Scraper.DefaultDelayMin {
		return fmt.Errorf("invalid configuration: scraper default_delay_max (%v) < default_delay_min (%v)",
			c.Scraper.DefaultDelayMax, c.Scraper.DefaultDelayMin)
	}
	if c.Review.WarnMinutes >= c.Review.TimeoutMinutes {
		return fmt.Errorf("invalid configuration: review warn_minutes (%d) must be below timeout_minutes (%d)",
			c.Review.WarnMinutes, c.Review.TimeoutMinutes)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(cfg *Config, port int, host string) {
	if port != 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SOLICITA_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SOLICITA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SOLICITA_OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
	if v := os.Getenv("SOLICITA_OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("SOLICITA_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SOLICITA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// DatabaseDir returns the badger database directory under the data dir.
func (c *Config) DatabaseDir() string {
	return filepath.Join(c.Storage.DataDir, "jobs.db")
}

// BackupsDir returns the backup directory under the data dir.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.Storage.DataDir, "backups")
}

// ApplicationsDir returns the root directory for per-application artifacts.
func (c *Config) ApplicationsDir() string {
	return filepath.Join(c.Storage.DataDir, "applications")
}

// ApplicationDir returns the artifact directory for one application
// (form.png, confirmation_start.png, confirmation.png, cv.pdf).
func (c *Config) ApplicationDir(applicationID string) string {
	return filepath.Join(c.ApplicationsDir(), applicationID)
}

// CVMasterPath returns the location of the canonical master CV.
func (c *Config) CVMasterPath() string {
	return filepath.Join(c.Storage.DataDir, "cv_master.pdf")
}

// BrowserProfilesDir returns the persistent browser profile directory.
func (c *Config) BrowserProfilesDir() string {
	return filepath.Join(c.Storage.DataDir, "browser_profiles")
}

// LogsDir returns the log directory under the data dir.
func (c *Config) LogsDir() string {
	return filepath.Join(c.Storage.DataDir, "logs")
}

// EnsureDirectories creates the data directory layout.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDir,
		c.BackupsDir(),
		c.ApplicationsDir(),
		c.BrowserProfilesDir(),
		c.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
