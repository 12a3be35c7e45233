// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Rotation  RotationConfig  `mapstructure:"rotation"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	DB        DBConfig        `mapstructure:"db"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Salary    SalaryConfig    `mapstructure:"salary"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Ops       OpsConfig       `mapstructure:"ops"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ScrapeConfig governs the search-and-detail pipeline.
type ScrapeConfig struct {
	Source        string `mapstructure:"source"`
	DetailWorkers int    `mapstructure:"detail_workers"`
	MaxPages      int    `mapstructure:"max_pages"`
}

// HTTPConfig configures the resilient page client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxAttempts    int `mapstructure:"max_attempts"`
	BackoffBaseMs  int `mapstructure:"backoff_base_ms"`
}

// RateLimitConfig maps sources to requests-per-minute ceilings.
type RateLimitConfig struct {
	DefaultMax int            `mapstructure:"default_max"`
	Thresholds map[string]int `mapstructure:"thresholds"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// RotationConfig lists outbound proxies and browser identities.
type RotationConfig struct {
	Proxies    []string `mapstructure:"proxies"`
	UserAgents []string `mapstructure:"user_agents"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxParallel   int  `mapstructure:"max_parallel"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// SalaryConfig points at the optional salary prediction service.
type SalaryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ArchiveConfig sets the raw page archive location.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseDir string `mapstructure:"base_dir"`
}

// OpsConfig controls the health/metrics HTTP listener.
type OpsConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YAGAAMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scrape.source", "indeed")
	v.SetDefault("scrape.detail_workers", 4)
	v.SetDefault("scrape.max_pages", 1)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_base_ms", 1000)
	v.SetDefault("rate_limit.default_max", 5)
	v.SetDefault("rate_limit.thresholds", map[string]int{
		"indeed":         5,
		"indeed_details": 3,
	})
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("headless.enabled", true)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 30)
	v.SetDefault("db.table", "job_postings")
	v.SetDefault("salary.timeout_seconds", 10)
	v.SetDefault("archive.base_dir", "archive")
	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scrape.Source == "" {
		return fmt.Errorf("scrape.source must be set")
	}
	if c.Scrape.DetailWorkers <= 0 {
		return fmt.Errorf("scrape.detail_workers must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts <= 0 {
		return fmt.Errorf("http.max_attempts must be > 0")
	}
	if c.RateLimit.DefaultMax <= 0 {
		return fmt.Errorf("rate_limit.default_max must be > 0")
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	if c.Salary.Enabled && c.Salary.BaseURL == "" {
		return fmt.Errorf("salary.base_url must be set when salary prediction is enabled")
	}
	if c.Archive.Enabled && c.Archive.BaseDir == "" {
		return fmt.Errorf("archive.base_dir must be set when archiving is enabled")
	}
	return nil
}

// HTTPTimeout returns the page request timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase returns the initial retry backoff as a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}
