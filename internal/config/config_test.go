package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"indicator-engine/internal/analysis/indicators"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/models"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_WritesTemplateOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Fatalf("template not written: %v", err)
	}
	if cfg.File != Path(dir) {
		t.Errorf("File = %q, want %q", cfg.File, Path(dir))
	}
	if cfg.Engine.Workers != 4 || cfg.Engine.Precision != 4 || cfg.Engine.DefaultPrice != "close" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Store.Path != filepath.Join(dir, "bars.db") {
		t.Errorf("store.path = %q", cfg.Store.Path)
	}
	if len(cfg.Jobs) != 4 {
		t.Fatalf("template jobs = %d, want 4", len(cfg.Jobs))
	}
	kind, params, err := cfg.Jobs[1].Resolve()
	if err != nil || kind != indicators.KindBBands || params.Choice(3) != "sma" {
		t.Errorf("bands job resolved to %v %v, %v", kind, params, err)
	}
}

func TestLoad_ReadsSectionsAndJobs(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[engine]
workers = 2
precision = 2
default_price = "typical"

[store]
path = "/tmp/x.db"

[logging]
level = "debug"
console = false

[metrics]
enabled = true

[[jobs]]
name = "fast-ema"
kind = "ema"
price = "high"
params = { period = 5, seed = "first" }
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Workers != 2 || cfg.Engine.Precision != 2 || !cfg.Metrics.Enabled {
		t.Errorf("cfg = %+v", cfg)
	}
	if lc := cfg.LogConfig(); lc.Level != "debug" || lc.Console || lc.MaxSize != 100 {
		t.Errorf("log config = %+v", lc)
	}

	job := cfg.Jobs[0]
	kind, params, err := job.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if kind != indicators.KindEMA || params.Int(0) != 5 || params.Choice(1) != "first" {
		t.Errorf("resolved %v %v", kind, params)
	}
	if cfg.PriceField(job) != models.FieldHigh {
		t.Errorf("job price = %v", cfg.PriceField(job))
	}
	if cfg.PriceField(JobConfig{}) != models.FieldTypical {
		t.Errorf("default price = %v", cfg.PriceField(JobConfig{}))
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[engine]\nworkers = 2\n")
	t.Setenv("INDICATORS_WORKERS", "8")
	t.Setenv("INDICATORS_DB_PATH", "/data/bars.db")
	t.Setenv("INDICATORS_LOG_LEVEL", "warn")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Workers != 8 || cfg.Store.Path != "/data/bars.db" || cfg.Logging.Level != "warn" {
		t.Errorf("overrides not applied: %+v %+v %+v", cfg.Engine, cfg.Store, cfg.Logging)
	}

	t.Setenv("INDICATORS_WORKERS", "many")
	if _, err := Load(dir); !errors.Is(err, apperrors.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("INDICATORS_WORKERS=3\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// registered so the variable set by godotenv is restored afterwards
	t.Setenv("INDICATORS_WORKERS", "")
	os.Unsetenv("INDICATORS_WORKERS")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Workers != 3 {
		t.Errorf("workers = %d, want 3 from .env", cfg.Engine.Workers)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Engine:  EngineConfig{Workers: 4, Precision: 4, DefaultPrice: "close"},
			Store:   StoreConfig{Path: "bars.db"},
			Logging: LoggingConfig{Level: "info"},
			Jobs:    []JobConfig{{Name: "a", Kind: "SMA", Params: map[string]string{"period": "3"}}},
		}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Engine.Workers = 0 }},
		{"precision", func(c *Config) { c.Engine.Precision = 20 }},
		{"price", func(c *Config) { c.Engine.DefaultPrice = "vwap" }},
		{"store", func(c *Config) { c.Store.Path = " " }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"unnamed job", func(c *Config) { c.Jobs[0].Name = "" }},
		{"duplicate job", func(c *Config) { c.Jobs = append(c.Jobs, c.Jobs[0]) }},
		{"unknown kind", func(c *Config) { c.Jobs[0].Kind = "RSI2" }},
		{"unknown param", func(c *Config) { c.Jobs[0].Params["length"] = "3" }},
		{"param range", func(c *Config) { c.Jobs[0].Params["period"] = "0" }},
		{"job price", func(c *Config) { c.Jobs[0].Price = "bid" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("expected ErrConfigInvalid, got %v", err)
			}
		})
	}
}
