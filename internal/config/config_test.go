package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Data defaults
	if !strings.Contains(cfg.Data.SP500URL, "List_of_S%26P_500_companies") {
		t.Errorf("Data.SP500URL: got %q", cfg.Data.SP500URL)
	}
	if cfg.Data.CSI300File != "CSI 300.xlsx" {
		t.Errorf("Data.CSI300File: got %q, want %q", cfg.Data.CSI300File, "CSI 300.xlsx")
	}
	if cfg.Data.YahooBaseURL != "https://query1.finance.yahoo.com" {
		t.Errorf("Data.YahooBaseURL: got %q", cfg.Data.YahooBaseURL)
	}
	if cfg.Data.PadDays != 5 {
		t.Errorf("Data.PadDays: got %d, want 5", cfg.Data.PadDays)
	}
	if cfg.Data.TimeoutSec != 30 {
		t.Errorf("Data.TimeoutSec: got %d, want 30", cfg.Data.TimeoutSec)
	}
	if !cfg.Data.AlignToCalendar {
		t.Error("Data.AlignToCalendar should be true by default")
	}

	// Analysis defaults
	if cfg.Analysis.CacheTTL != 900 {
		t.Errorf("Analysis.CacheTTL: got %d, want 900", cfg.Analysis.CacheTTL)
	}
	if cfg.Analysis.ConcurrentFetches != 8 {
		t.Errorf("Analysis.ConcurrentFetches: got %d, want 8", cfg.Analysis.ConcurrentFetches)
	}
	if cfg.Analysis.RateLimit != 10 {
		t.Errorf("Analysis.RateLimit: got %d, want 10", cfg.Analysis.RateLimit)
	}
	if cfg.Analysis.TopN != 10 {
		t.Errorf("Analysis.TopN: got %d, want 10", cfg.Analysis.TopN)
	}
	if cfg.Analysis.PriceField != "adj_close" {
		t.Errorf("Analysis.PriceField: got %q, want adj_close", cfg.Analysis.PriceField)
	}

	// News defaults
	if cfg.News.Limit != 20 {
		t.Errorf("News.Limit: got %d, want 20", cfg.News.Limit)
	}
	if len(cfg.News.SP500) == 0 || len(cfg.News.CSI300) == 0 {
		t.Error("expected default headline feeds for both indices")
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}
	if cfg.API.MaxRuns != 20 {
		t.Errorf("API.MaxRuns: got %d, want 20", cfg.API.MaxRuns)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("INDEXMOVERS_API_PORT", "9191")
	t.Setenv("INDEXMOVERS_ANALYSIS_TOP_N", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != 9191 {
		t.Errorf("API.Port: got %d, want 9191", cfg.API.Port)
	}
	if cfg.Analysis.TopN != 5 {
		t.Errorf("Analysis.TopN: got %d, want 5", cfg.Analysis.TopN)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
data:
  csi300_file: "/data/csi300.csv"
  pad_days: 7
analysis:
  concurrent_fetches: 4
  top_n: 15
  price_field: "close"
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Data.CSI300File != "/data/csi300.csv" {
		t.Errorf("Data.CSI300File: got %q", cfg.Data.CSI300File)
	}
	if cfg.Data.PadDays != 7 {
		t.Errorf("Data.PadDays: got %d, want 7", cfg.Data.PadDays)
	}
	if cfg.Analysis.ConcurrentFetches != 4 {
		t.Errorf("Analysis.ConcurrentFetches: got %d, want 4", cfg.Analysis.ConcurrentFetches)
	}
	if cfg.Analysis.TopN != 15 {
		t.Errorf("Analysis.TopN: got %d, want 15", cfg.Analysis.TopN)
	}
	if cfg.Analysis.PriceField != "close" {
		t.Errorf("Analysis.PriceField: got %q, want close", cfg.Analysis.PriceField)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
	// Unset keys keep their defaults.
	if cfg.Analysis.RateLimit != 10 {
		t.Errorf("Analysis.RateLimit: got %d, want default 10", cfg.Analysis.RateLimit)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(cfgPath, []byte("analysis:\n  price_field: \"open\"\n"), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if _, err := LoadFromFile(cfgPath); err == nil {
		t.Error("expected validation error for unknown price_field")
	}
}

// ── Validate ──

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Data:     DataConfig{PadDays: 5},
			Analysis: AnalysisConfig{ConcurrentFetches: 2, PriceField: "adj_close"},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"price field", func(c *Config) { c.Analysis.PriceField = "" }},
		{"concurrency", func(c *Config) { c.Analysis.ConcurrentFetches = 0 }},
		{"pad days", func(c *Config) { c.Data.PadDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// ── YAML ──

func TestYAMLDump(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() error: %v", err)
	}
	for _, want := range []string{"data:", "analysis:", "price_field: adj_close", "port: 8080"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
}

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	if homeDir() == "" {
		t.Error("homeDir() returned empty string")
	}
}
