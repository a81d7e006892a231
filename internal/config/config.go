// Package config provides configuration management for the indicator engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"indicator-engine/internal/analysis/indicators"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/logging"
	"indicator-engine/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Jobs    []JobConfig   `mapstructure:"jobs"`

	// File is the config file that was read.
	File string `mapstructure:"-"`
}

// EngineConfig holds evaluation settings.
type EngineConfig struct {
	Workers      int    `mapstructure:"workers"`
	Precision    int    `mapstructure:"precision"`     // decimal places in printed values
	DefaultPrice string `mapstructure:"default_price"` // bar field feeding "price" inputs
}

// StoreConfig holds bar store settings.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// JobConfig describes one indicator evaluated by the batch command.
type JobConfig struct {
	Name   string            `mapstructure:"name"`
	Kind   string            `mapstructure:"kind"`
	Price  string            `mapstructure:"price"`
	Params map[string]string `mapstructure:"params"`
}

const (
	fileName  = "config"
	fileType  = "toml"
	maxWorker = 256
)

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/indicator-engine"
	}
	return filepath.Join(home, ".config", "indicator-engine")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, fileName+"."+fileType)
}

func setDefaults(v *viper.Viper, configDir string) {
	log := logging.DefaultLogConfig()

	v.SetDefault("engine.workers", 4)
	v.SetDefault("engine.precision", 4)
	v.SetDefault("engine.default_price", string(models.FieldClose))
	v.SetDefault("store.path", filepath.Join(configDir, "bars.db"))
	v.SetDefault("logging.level", log.Level)
	v.SetDefault("logging.console", log.Console)
	v.SetDefault("logging.file", log.File)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "indicators.log"))
	v.SetDefault("logging.max_size", log.MaxSize)
	v.SetDefault("logging.max_backups", log.MaxBackups)
	v.SetDefault("logging.max_age", log.MaxAge)
	v.SetDefault("metrics.enabled", false)
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config file is replaced by the commented template.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env values never override variables already set
	if err := loadDotEnv(configDir); err != nil {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(configDir string) error {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("INDICATORS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("INDICATORS_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("INDICATORS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return apperrors.Wrapf(apperrors.ErrConfigInvalid, "INDICATORS_WORKERS=%q is not an integer", v)
		}
		cfg.Engine.Workers = n
	}
	return nil
}

var logLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.Workers < 1 || c.Engine.Workers > maxWorker {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "engine.workers must be between 1 and %d, got %d", maxWorker, c.Engine.Workers)
	}
	if c.Engine.Precision < 0 || c.Engine.Precision > 12 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "engine.precision must be between 0 and 12, got %d", c.Engine.Precision)
	}
	if _, err := models.ParseField(c.Engine.DefaultPrice); err != nil {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "engine.default_price: %v", err)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "store.path must not be empty")
	}

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	valid := false
	for _, l := range logLevels {
		if level == l {
			valid = true
			break
		}
	}
	if !valid {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "logging.level %q is not one of %s", c.Logging.Level, strings.Join(logLevels, ", "))
	}

	seen := make(map[string]bool, len(c.Jobs))
	for i, job := range c.Jobs {
		if strings.TrimSpace(job.Name) == "" {
			return apperrors.Wrapf(apperrors.ErrConfigInvalid, "jobs[%d] has no name", i)
		}
		if seen[job.Name] {
			return apperrors.Wrapf(apperrors.ErrConfigInvalid, "duplicate job name %q", job.Name)
		}
		seen[job.Name] = true
		if _, _, err := job.Resolve(); err != nil {
			return apperrors.Wrapf(apperrors.ErrConfigInvalid, "job %q: %v", job.Name, err)
		}
		if job.Price != "" {
			if _, err := models.ParseField(job.Price); err != nil {
				return apperrors.Wrapf(apperrors.ErrConfigInvalid, "job %q: %v", job.Name, err)
			}
		}
	}

	return nil
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// PriceField returns the bar field used for a job's price input.
func (c *Config) PriceField(job JobConfig) models.Field {
	name := job.Price
	if name == "" {
		name = c.Engine.DefaultPrice
	}
	f, err := models.ParseField(name)
	if err != nil {
		return models.FieldClose
	}
	return f
}

// Resolve parses the job's kind and applies its parameters over the defaults.
// Parameters are applied in name order so errors are reproducible.
func (j JobConfig) Resolve() (indicators.Kind, indicators.Params, error) {
	kind, err := indicators.ParseKind(j.Kind)
	if err != nil {
		return 0, indicators.Params{}, err
	}
	params := indicators.DefaultParams(kind)

	names := make([]string, 0, len(j.Params))
	for name := range j.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := params.SetByName(name, j.Params[name]); err != nil {
			return 0, indicators.Params{}, err
		}
	}
	return kind, params, nil
}
