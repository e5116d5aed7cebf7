// Package config handles configuration loading for indexmovers.
// It supports YAML config files, .env files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "INDEXMOVERS"

// Config represents the complete application configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// DataConfig holds constituent and price source settings.
type DataConfig struct {
	SP500URL        string `mapstructure:"sp500_url"        yaml:"sp500_url"`
	SP500File       string `mapstructure:"sp500_file"       yaml:"sp500_file"`  // optional local override
	CSI300File      string `mapstructure:"csi300_file"      yaml:"csi300_file"` // .xlsx or .csv
	YahooBaseURL    string `mapstructure:"yahoo_base_url"   yaml:"yahoo_base_url"`
	PadDays         int    `mapstructure:"pad_days"         yaml:"pad_days"`
	TimeoutSec      int    `mapstructure:"timeout_sec"      yaml:"timeout_sec"`
	UserAgent       string `mapstructure:"user_agent"       yaml:"user_agent"`
	AlignToCalendar bool   `mapstructure:"align_to_calendar" yaml:"align_to_calendar"`
}

// AnalysisConfig holds pipeline settings.
type AnalysisConfig struct {
	CacheTTL          int    `mapstructure:"cache_ttl"          yaml:"cache_ttl"` // seconds
	ConcurrentFetches int    `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches"`
	RateLimit         int    `mapstructure:"rate_limit"         yaml:"rate_limit"` // requests per second
	TopN              int    `mapstructure:"top_n"              yaml:"top_n"`
	PriceField        string `mapstructure:"price_field"        yaml:"price_field"` // "adj_close" or "close"
}

// NewsConfig holds headline feed settings.
type NewsConfig struct {
	Limit  int      `mapstructure:"limit"  yaml:"limit"`
	SP500  []string `mapstructure:"sp500"  yaml:"sp500"`
	CSI300 []string `mapstructure:"csi300" yaml:"csi300"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	MaxRuns     int      `mapstructure:"max_runs"     yaml:"max_runs"` // reports kept in memory
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.indexmovers/config.yaml (home directory)
//  3. /etc/indexmovers/config.yaml (system)
//
// A .env file in the working directory is loaded first, so its values act as
// environment overrides. Format: INDEXMOVERS_<SECTION>_<KEY>, e.g.
// INDEXMOVERS_API_PORT.
func Load() (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".indexmovers"))
	v.AddConfigPath("/etc/indexmovers")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

// YAML renders the effective configuration as YAML.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

// Validate checks values that would make a run impossible.
func (c *Config) Validate() error {
	switch c.Analysis.PriceField {
	case "adj_close", "close":
	default:
		return fmt.Errorf("analysis.price_field must be \"adj_close\" or \"close\", got %q", c.Analysis.PriceField)
	}
	if c.Analysis.ConcurrentFetches < 1 {
		return fmt.Errorf("analysis.concurrent_fetches must be >= 1, got %d", c.Analysis.ConcurrentFetches)
	}
	if c.Data.PadDays < 0 {
		return fmt.Errorf("data.pad_days must be >= 0, got %d", c.Data.PadDays)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.sp500_url", "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies")
	v.SetDefault("data.sp500_file", "")
	v.SetDefault("data.csi300_file", "CSI 300.xlsx")
	v.SetDefault("data.yahoo_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("data.pad_days", 5)
	v.SetDefault("data.timeout_sec", 30)
	v.SetDefault("data.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	v.SetDefault("data.align_to_calendar", true)

	// Analysis defaults
	v.SetDefault("analysis.cache_ttl", 900) // 15 minutes
	v.SetDefault("analysis.concurrent_fetches", 8)
	v.SetDefault("analysis.rate_limit", 10)
	v.SetDefault("analysis.top_n", 10)
	v.SetDefault("analysis.price_field", "adj_close")

	// News defaults
	v.SetDefault("news.limit", 20)
	v.SetDefault("news.sp500", []string{
		"https://feeds.finance.yahoo.com/rss/2.0/headline?s=%5EGSPC&region=US&lang=en-US",
		"https://www.cnbc.com/id/100003114/device/rss/rss.html",
	})
	v.SetDefault("news.csi300", []string{
		"https://feeds.finance.yahoo.com/rss/2.0/headline?s=000300.SS&region=US&lang=en-US",
		"https://www.scmp.com/rss/92/feed",
	})

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.max_runs", 20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// loadDotEnv loads ./.env when present. Existing environment variables win.
func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
