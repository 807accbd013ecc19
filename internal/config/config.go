// Package config loads application configuration from file, environment, and
// defaults, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	SiteMine  SiteMineConfig  `yaml:"sitemine" mapstructure:"sitemine"`
	Resolver  ResolverConfig  `yaml:"resolver" mapstructure:"resolver"`
	Queue     QueueConfig     `yaml:"queue" mapstructure:"queue"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend. The pool knobs only apply to
// the postgres driver.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings for grounded search.
type AnthropicConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	Model         string `yaml:"model" mapstructure:"model"`
	MaxSearches   int    `yaml:"max_searches" mapstructure:"max_searches"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
}

// JinaConfig holds Jina AI Reader settings (scrape fallback).
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig configures the search-engine scraper.
type SearchConfig struct {
	MaxResults     int      `yaml:"max_results" mapstructure:"max_results"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinDelayMs     int      `yaml:"min_delay_ms" mapstructure:"min_delay_ms"`
	MaxDelayMs     int      `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	ExcludeDomains []string `yaml:"exclude_domains" mapstructure:"exclude_domains"`
}

// SiteMineConfig configures the direct-site extractor.
type SiteMineConfig struct {
	MaxPages     int      `yaml:"max_pages" mapstructure:"max_pages"`
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ExcludePaths []string `yaml:"exclude_paths" mapstructure:"exclude_paths"`
}

// ResolverConfig holds the product-tuned arbitration thresholds. These are
// heuristics, not physical constants; keep them configurable.
type ResolverConfig struct {
	AcceptScore     float64 `yaml:"accept_score" mapstructure:"accept_score"`
	FuzzyThreshold  float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	FuzzySampleSize int     `yaml:"fuzzy_sample_size" mapstructure:"fuzzy_sample_size"`
}

// QueueConfig configures the durable job queue and worker pool.
type QueueConfig struct {
	Concurrency      int `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBaseSecs  int `yaml:"backoff_base_secs" mapstructure:"backoff_base_secs"`
	StallTimeoutSecs int `yaml:"stall_timeout_secs" mapstructure:"stall_timeout_secs"`
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	ArchiveAfterHrs  int `yaml:"archive_after_hrs" mapstructure:"archive_after_hrs"`
}

// StallTimeout returns the heartbeat expiry as a duration.
func (q QueueConfig) StallTimeout() time.Duration {
	return time.Duration(q.StallTimeoutSecs) * time.Second
}

// PollInterval returns the dequeue polling interval as a duration.
func (q QueueConfig) PollInterval() time.Duration {
	return time.Duration(q.PollIntervalSecs) * time.Second
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional), ENRICH_* environment
// variables, and built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "enrich.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_searches", 3)
	v.SetDefault("anthropic.timeout_secs", 60)
	v.SetDefault("anthropic.min_confidence", 0.5)
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout_secs", 10)
	v.SetDefault("search.min_delay_ms", 300)
	v.SetDefault("search.max_delay_ms", 900)
	v.SetDefault("search.exclude_domains", []string{
		"untappd.com", "ratebeer.com", "beeradvocate.com",
		"facebook.com", "instagram.com", "twitter.com", "x.com",
		"linkedin.com", "wikipedia.org", "tripadvisor.com",
	})
	v.SetDefault("sitemine.max_pages", 15)
	v.SetDefault("sitemine.timeout_secs", 10)
	v.SetDefault("sitemine.exclude_paths", []string{
		"/privacy*", "/cookie*", "/legal*", "/terms*", "/gdpr*",
		"/informativa*", "/condizioni*",
	})
	v.SetDefault("resolver.accept_score", 60)
	v.SetDefault("resolver.fuzzy_threshold", 0.7)
	v.SetDefault("resolver.fuzzy_sample_size", 200)
	v.SetDefault("queue.concurrency", 3)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("queue.backoff_base_secs", 30)
	v.SetDefault("queue.stall_timeout_secs", 300)
	v.SetDefault("queue.poll_interval_secs", 2)
	v.SetDefault("queue.archive_after_hrs", 72)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger builds and installs the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
