package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for canjobs.
type Config struct {
	Database     DatabaseConfig
	Server       ServerConfig
	Ingest       IngestConfig
	Cities       []string
	Sources      SourcesConfig
	Filters      FilterConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
	Notification NotificationConfig
	AI           AIConfig
	PageFetch    PageFetchConfig
	Cache        CacheConfig
}

// DatabaseConfig selects the SQL backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `yaml:"dsn"`    // file path for sqlite, connection URL for postgres
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// IngestConfig controls periodic ingestion.
type IngestConfig struct {
	Interval   time.Duration // time between scheduled ingests
	Days       int           // only keep postings newer than this many days
	RunOnStart bool          // ingest once immediately when the scheduler starts
	Titles     []string      // search terms sent to keyword-search sources
	Retention  time.Duration // stored jobs older than this are deleted, zero disables
}

// SourcesConfig lists the job sources to ingest from.
type SourcesConfig struct {
	Adzuna AdzunaConfig  `yaml:"adzuna"`
	Boards []BoardConfig `yaml:"boards"`
}

// AdzunaConfig holds the Adzuna API credentials.
type AdzunaConfig struct {
	Enabled        bool   `yaml:"enabled"`
	AppID          string `yaml:"app_id"`
	AppKey         string `yaml:"app_key"`
	ResultsPerPage int    `yaml:"results_per_page"`
}

// BoardConfig describes a single company job board to ingest.
type BoardConfig struct {
	Name       string `yaml:"name"`
	ATS        string `yaml:"ats"` // "greenhouse" or "lever"
	BoardToken string `yaml:"board_token"`
	Enabled    bool   `yaml:"enabled"`
}

// FilterConfig holds keyword and location filter settings applied at ingest.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// RateLimitConfig controls per-source rate limiting.
type RateLimitConfig struct {
	MinDelay        time.Duration            // minimum gap between requests to the same source
	SourceOverrides map[string]time.Duration // per-source overrides, keyed by source name
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source string) time.Duration {
	if d, ok := r.SourceOverrides[source]; ok {
		return d
	}
	return r.MinDelay
}

// RetryConfig controls retries of failed source fetches.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// AIConfig controls the optional OpenAI analysis. When disabled the regex
// extractor is used on its own.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // OpenAI model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// PageFetchConfig controls fetching the full posting page before analysis.
type PageFetchConfig struct {
	Enabled   bool
	Timeout   time.Duration
	MaxChars  int
	UserAgent string
}

// CacheConfig controls the fetched-page cache.
type CacheConfig struct {
	RedisURL   string // empty disables the Redis tier
	TTL        time.Duration
	MaxEntries int
}

// DefaultTitles are the search terms used when ingest.titles is empty.
var DefaultTitles = []string{
	"full stack developer", "software engineer", "frontend developer",
	"backend developer", "java developer", "react developer",
}

// DefaultCities are offered to clients when cities is empty.
var DefaultCities = []string{
	"Canada (All)", "Toronto, ON", "Vancouver, BC", "Montréal, QC",
	"Calgary, AB", "Ottawa, ON", "Edmonton, AB", "Winnipeg, MB",
	"Québec City, QC", "Hamilton, ON", "Kitchener, ON",
	"Victoria, BC", "Halifax, NS",
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultUserAgent     = "Mozilla/5.0"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Database     DatabaseConfig     `yaml:"database"`
	Server       ServerConfig       `yaml:"server"`
	Ingest       rawIngestConfig    `yaml:"ingest"`
	Cities       []string           `yaml:"cities"`
	Sources      SourcesConfig      `yaml:"sources"`
	Filters      FilterConfig       `yaml:"filters"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Retry        rawRetryConfig     `yaml:"retry"`
	Notification NotificationConfig `yaml:"notification"`
	AI           rawAIConfig        `yaml:"ai"`
	PageFetch    rawPageFetchConfig `yaml:"page_fetch"`
	Cache        rawCacheConfig     `yaml:"cache"`
}

type rawIngestConfig struct {
	Interval   string   `yaml:"interval"`
	Days       int      `yaml:"days"`
	RunOnStart *bool    `yaml:"run_on_start"`
	Titles     []string `yaml:"titles"`
	Retention  string   `yaml:"retention"`
}

type rawRateLimitConfig struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

type rawRetryConfig struct {
	MaxRetries *int   `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawPageFetchConfig struct {
	Enabled   *bool  `yaml:"enabled"`
	Timeout   string `yaml:"timeout"`
	MaxChars  int    `yaml:"max_chars"`
	UserAgent string `yaml:"user_agent"`
}

type rawCacheConfig struct {
	RedisURL   string `yaml:"redis_url"`
	TTL        string `yaml:"ttl"`
	MaxEntries int    `yaml:"max_entries"`
}

// parseDuration parses value, returning def when value is empty.
func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
// A .env file next to the config is loaded first; variables already set in the
// environment win.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval, err := parseDuration("ingest.interval", raw.Ingest.Interval, 6*time.Hour)
	if err != nil {
		return nil, err
	}
	retention, err := parseDuration("ingest.retention", raw.Ingest.Retention, 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDuration("rate_limit.min_delay", raw.RateLimit.MinDelay, time.Second)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]time.Duration)
	for source, v := range raw.RateLimit.SourceOverrides {
		d, err := parseDuration(fmt.Sprintf("rate_limit.source_overrides[%q]", source), v, 0)
		if err != nil {
			return nil, err
		}
		overrides[source] = d
	}
	retryDelay, err := parseDuration("retry.base_delay", raw.Retry.BaseDelay, time.Second)
	if err != nil {
		return nil, err
	}
	aiTimeout, err := parseDuration("ai.timeout", raw.AI.Timeout, 30*time.Second)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("page_fetch.timeout", raw.PageFetch.Timeout, 7*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("cache.ttl", raw.Cache.TTL, time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: raw.Database,
		Server:   raw.Server,
		Ingest: IngestConfig{
			Interval:   interval,
			Days:       raw.Ingest.Days,
			RunOnStart: boolOr(raw.Ingest.RunOnStart, true),
			Titles:     raw.Ingest.Titles,
			Retention:  retention,
		},
		Cities:       raw.Cities,
		Sources:      raw.Sources,
		Filters:      raw.Filters,
		RateLimit:    RateLimitConfig{MinDelay: minDelay, SourceOverrides: overrides},
		Retry:        RetryConfig{MaxRetries: intOr(raw.Retry.MaxRetries, 2), BaseDelay: retryDelay},
		Notification: raw.Notification,
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: raw.AI.BaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		PageFetch: PageFetchConfig{
			Enabled:   boolOr(raw.PageFetch.Enabled, true),
			Timeout:   fetchTimeout,
			MaxChars:  raw.PageFetch.MaxChars,
			UserAgent: raw.PageFetch.UserAgent,
		},
		Cache: CacheConfig{
			RedisURL:   raw.Cache.RedisURL,
			TTL:        cacheTTL,
			MaxEntries: raw.Cache.MaxEntries,
		},
	}
	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "jobs.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.Ingest.Days == 0 {
		cfg.Ingest.Days = 3
	}
	if len(cfg.Ingest.Titles) == 0 {
		cfg.Ingest.Titles = DefaultTitles
	}
	if len(cfg.Cities) == 0 {
		cfg.Cities = DefaultCities
	}
	if cfg.Sources.Adzuna.ResultsPerPage == 0 {
		cfg.Sources.Adzuna.ResultsPerPage = 50
	}
	if cfg.Notification.Type == "" {
		cfg.Notification.Type = "log"
	}
	if cfg.AI.BaseURL == "" {
		cfg.AI.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.PageFetch.MaxChars == 0 {
		cfg.PageFetch.MaxChars = 20000
	}
	if cfg.PageFetch.UserAgent == "" {
		cfg.PageFetch.UserAgent = defaultUserAgent
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 500
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for driver %q", cfg.Database.Driver)
	}

	if cfg.Ingest.Interval <= 0 {
		return fmt.Errorf("ingest.interval must be positive, got %v", cfg.Ingest.Interval)
	}
	if cfg.Ingest.Days < 1 || cfg.Ingest.Days > 30 {
		return fmt.Errorf("ingest.days must be between 1 and 30, got %d", cfg.Ingest.Days)
	}
	if cfg.Ingest.Retention < 0 {
		return fmt.Errorf("ingest.retention must not be negative, got %v", cfg.Ingest.Retention)
	}

	enabled := 0
	if cfg.Sources.Adzuna.Enabled {
		if cfg.Sources.Adzuna.AppID == "" || cfg.Sources.Adzuna.AppKey == "" {
			return fmt.Errorf("sources.adzuna.app_id and app_key are required when adzuna is enabled")
		}
		if cfg.Sources.Adzuna.ResultsPerPage < 1 || cfg.Sources.Adzuna.ResultsPerPage > 50 {
			return fmt.Errorf("sources.adzuna.results_per_page must be between 1 and 50, got %d", cfg.Sources.Adzuna.ResultsPerPage)
		}
		enabled++
	}
	for _, b := range cfg.Sources.Boards {
		if !b.Enabled {
			continue
		}
		if b.ATS != "greenhouse" && b.ATS != "lever" {
			return fmt.Errorf("sources.boards[%s].ats must be \"greenhouse\" or \"lever\", got %q", b.Name, b.ATS)
		}
		if b.BoardToken == "" {
			return fmt.Errorf("sources.boards[%s].board_token is required", b.Name)
		}
		enabled++
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must not be negative, got %d", cfg.Retry.MaxRetries)
	}

	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}
