// Package config provides configuration management for the SEO optimizer.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingSiteURL           = errors.New("wordpress.url is required")
	ErrInvalidSiteURL           = errors.New("wordpress.url must be an absolute http(s) URL")
	ErrMissingUsername          = errors.New("wordpress.username is required")
	ErrMissingPassword          = errors.New("wordpress.password is required")
	ErrInvalidPerPage           = errors.New("wordpress.per_page must be between 1 and 100")
	ErrMissingAPIKey            = errors.New("gemini.api_key is required")
	ErrMissingModel             = errors.New("gemini.model is required")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidExcerpt           = errors.New("generation.excerpt_chars must be at least 1")
	ErrInvalidKeywordWords      = errors.New("generation.max_keyword_words must be at least 1")
	ErrInvalidDescriptionLength = errors.New("generation.max_description_chars must be at least 10")
	ErrMissingOutputPath        = errors.New("output.report_path and output.error_log_path are required")
	ErrInvalidPostDelay         = errors.New("run.post_delay_ms must be non-negative")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Default output file names.
const (
	DefaultReportPath   = "wp_seo_optimization_report.csv"
	DefaultErrorLogPath = "wp_seo_optimization_errors.log"
)

// Config represents the complete optimizer configuration.
type Config struct {
	WordPress  WordPressConfig  `yaml:"wordpress"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Retry      RetryPolicy      `yaml:"retry"`
	Generation GenerationConfig `yaml:"generation"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Run        RunConfig        `yaml:"run"`
}

// WordPressConfig holds the site location and application-password credentials.
type WordPressConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	PerPage  int    `yaml:"per_page"`
}

// GeminiConfig holds the generative-language API settings.
type GeminiConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
}

// RetryPolicy defines transport retry behavior for both API clients.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// GenerationConfig bounds prompt input and model output.
type GenerationConfig struct {
	ExcerptChars        int `yaml:"excerpt_chars"`
	MaxKeywordWords     int `yaml:"max_keyword_words"`
	MaxDescriptionChars int `yaml:"max_description_chars"`
}

// OutputConfig names the report and error log files.
type OutputConfig struct {
	ReportPath   string `yaml:"report_path"`
	ErrorLogPath string `yaml:"error_log_path"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RunConfig controls batch pacing.
type RunConfig struct {
	PostDelayMs int  `yaml:"post_delay_ms"`
	DryRun      bool `yaml:"dry_run"`
}

// Default returns a configuration with every optional field populated.
// Credentials are left empty.
func Default() *Config {
	return &Config{
		WordPress: WordPressConfig{
			PerPage: 100,
		},
		Gemini: GeminiConfig{
			Model:    "gemini-pro",
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
		},
		Retry: RetryPolicy{
			MaxAttempts:       3,
			InitialDelayMs:    500,
			MaxDelayMs:        5000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		Generation: GenerationConfig{
			ExcerptChars:        1500,
			MaxKeywordWords:     6,
			MaxDescriptionChars: 160,
		},
		Output: OutputConfig{
			ReportPath:   DefaultReportPath,
			ErrorLogPath: DefaultErrorLogPath,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Run: RunConfig{
			PostDelayMs: 500,
		},
	}
}

// LoadConfig overlays a YAML file on top of the defaults.
// Credentials are usually supplied later through flags, so the result is not validated here.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.WordPress.URL == "" {
		return ErrMissingSiteURL
	}

	u, err := url.Parse(c.WordPress.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSiteURL, c.WordPress.URL)
	}

	if c.WordPress.Username == "" {
		return ErrMissingUsername
	}

	if c.WordPress.Password == "" {
		return ErrMissingPassword
	}

	if c.WordPress.PerPage < 1 || c.WordPress.PerPage > 100 {
		return ErrInvalidPerPage
	}

	if c.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}

	if c.Gemini.Model == "" {
		return ErrMissingModel
	}

	// Validate retry policy
	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.Generation.ExcerptChars < 1 {
		return ErrInvalidExcerpt
	}

	if c.Generation.MaxKeywordWords < 1 {
		return ErrInvalidKeywordWords
	}

	if c.Generation.MaxDescriptionChars < 10 {
		return ErrInvalidDescriptionLength
	}

	if c.Output.ReportPath == "" || c.Output.ErrorLogPath == "" {
		return ErrMissingOutputPath
	}

	if c.Run.PostDelayMs < 0 {
		return ErrInvalidPostDelay
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// APIBase returns the WP REST v2 root for the configured site.
func (c *Config) APIBase() string {
	return strings.TrimRight(c.WordPress.URL, "/") + "/wp-json/wp/v2"
}

// PostDelay returns the pause inserted between posts.
func (c *Config) PostDelay() time.Duration {
	return time.Duration(c.Run.PostDelayMs) * time.Millisecond
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Site: %s, User: %s, Model: %s, MaxAttempts: %d, DryRun: %t}",
		c.WordPress.URL,
		c.WordPress.Username,
		c.Gemini.Model,
		c.Retry.MaxAttempts,
		c.Run.DryRun,
	)
}
