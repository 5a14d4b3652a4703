package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	DefaultPath  = "config.json"
	DefaultModel = "gpt-3.5-turbo-16k"

	DefaultAssistantName         = "News Assistant"
	DefaultAssistantInstructions = "You are a news summarizer. After collecting the news from the News API, summarize the content of the news for the user. Make sure the Title and the URL of every article are present, and make sure the Title is bolded."
	DefaultRunInstructions       = "Summarize the content gotten from the News API and give it to the user. Add a new line between the Title and the Content of each article, and add the URL of each article so that users can read more on the site."
)

type ServerConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Subpath       string `json:"subpath"`
	SessionSecret string `json:"session_secret"`
	CookieName    string `json:"cookie_name"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"` // "postgres" or "sqlite"
	DSN    string `json:"dsn"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type SessionConfig struct {
	Store      string `json:"store"` // "memory" or "redis"
	TTLMinutes int    `json:"ttl_minutes"`
}

type NewsConfig struct {
	BaseURL               string `json:"base_url"`
	APIKey                string `json:"api_key"`
	TimeoutSeconds        int    `json:"timeout_seconds"`
	DefaultPageSize       string `json:"default_page_size"`
	EnrichContent         bool   `json:"enrich_content"`
	EnrichConcurrency     int    `json:"enrich_concurrency"`
	MaxContentChars       int    `json:"max_content_chars"`
	BreakerThreshold      int    `json:"breaker_threshold"`
	BreakerTimeoutSeconds int    `json:"breaker_timeout_seconds"`
}

type AssistantConfig struct {
	BaseURL               string `json:"base_url"`
	APIKey                string `json:"api_key"`
	OrgID                 string `json:"org_id"`
	Model                 string `json:"model"`
	Name                  string `json:"name"`
	Instructions          string `json:"instructions"`
	RunInstructions       string `json:"run_instructions"`
	AssistantID           string `json:"assistant_id"` // pre-provisioned assistant shared by all sessions, skips creation
	PollIntervalMillis    int    `json:"poll_interval_ms"`
	RunTimeoutSeconds     int    `json:"run_timeout_seconds"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	MaxConcurrentRuns     int    `json:"max_concurrent_runs"`
}

type HistoryConfig struct {
	Enabled       bool `json:"enabled"`
	RetentionDays int  `json:"retention_days"`
}

type MaintenanceConfig struct {
	Schedule string `json:"schedule"` // cron spec, e.g. "@daily"
}

type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	Redis       RedisConfig       `json:"redis"`
	Session     SessionConfig     `json:"session"`
	News        NewsConfig        `json:"news"`
	Assistant   AssistantConfig   `json:"assistant"`
	History     HistoryConfig     `json:"history"`
	Maintenance MaintenanceConfig `json:"maintenance"`
}

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads the config file once, applies environment overrides and
// defaults, and validates the result. A missing file is only an error when
// path was set explicitly through $CONFIG_PATH.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		c, err := load(path)
		if err != nil {
			cfgErr = err
			return
		}
		cfg = c
	})
	return cfg, cfgErr
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}

// Path returns $CONFIG_PATH when set, otherwise DefaultPath.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

func load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadNewsConfig reads only the news section, for tools that never talk to
// the assistant runtime. It bypasses the singleton.
func LoadNewsConfig(path string) (NewsConfig, error) {
	c, err := read(path)
	if err != nil {
		return NewsConfig{}, err
	}
	if c.News.APIKey == "" {
		return NewsConfig{}, errNoNewsKey
	}
	return c.News, nil
}

var errNoNewsKey = errors.New("news api key must be set (config news.api_key or NEWS_API_KEY)")

func read(path string) (*Config, error) {
	var c Config
	c.History.Enabled = true

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("invalid config format: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && os.Getenv("CONFIG_PATH") == "":
		// run from environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c.applyEnv()
	c.ApplyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.News.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Assistant.APIKey = v
	}
	if v := os.Getenv("OPENAI_ORG_ID"); v != "" {
		c.Assistant.OrgID = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Server.SessionSecret = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = "news_session"
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = "news-assistant.db"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}

	if c.Session.Store == "" {
		c.Session.Store = "memory"
	}
	if c.Session.TTLMinutes <= 0 {
		c.Session.TTLMinutes = 60
	}

	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org"
	}
	if c.News.TimeoutSeconds <= 0 {
		c.News.TimeoutSeconds = 10
	}
	if c.News.DefaultPageSize == "" {
		c.News.DefaultPageSize = "3"
	}
	if c.News.EnrichConcurrency <= 0 {
		c.News.EnrichConcurrency = 4
	}
	if c.News.MaxContentChars <= 0 {
		c.News.MaxContentChars = 1500
	}
	if c.News.BreakerThreshold <= 0 {
		c.News.BreakerThreshold = 3
	}
	if c.News.BreakerTimeoutSeconds <= 0 {
		c.News.BreakerTimeoutSeconds = 300
	}

	if c.Assistant.BaseURL == "" {
		c.Assistant.BaseURL = "https://api.openai.com/v1"
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = DefaultModel
	}
	if c.Assistant.Name == "" {
		c.Assistant.Name = DefaultAssistantName
	}
	if c.Assistant.Instructions == "" {
		c.Assistant.Instructions = DefaultAssistantInstructions
	}
	if c.Assistant.RunInstructions == "" {
		c.Assistant.RunInstructions = DefaultRunInstructions
	}
	if c.Assistant.PollIntervalMillis <= 0 {
		c.Assistant.PollIntervalMillis = 1000
	}
	if c.Assistant.RunTimeoutSeconds <= 0 {
		c.Assistant.RunTimeoutSeconds = 120
	}
	if c.Assistant.RequestTimeoutSeconds <= 0 {
		c.Assistant.RequestTimeoutSeconds = 30
	}
	if c.Assistant.MaxConcurrentRuns <= 0 {
		c.Assistant.MaxConcurrentRuns = 4
	}

	if c.History.RetentionDays <= 0 {
		c.History.RetentionDays = 30
	}
	if c.Maintenance.Schedule == "" {
		c.Maintenance.Schedule = "@daily"
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if c.News.APIKey == "" {
		return errNoNewsKey
	}
	if c.Assistant.APIKey == "" {
		return errors.New("assistant api key must be set (config assistant.api_key or OPENAI_API_KEY)")
	}
	if c.Server.SessionSecret == "" {
		return errors.New("session secret must be set (config server.session_secret or SESSION_SECRET)")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn must be set for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session store %q", c.Session.Store)
	}
	return nil
}

func (n NewsConfig) Timeout() time.Duration {
	return time.Duration(n.TimeoutSeconds) * time.Second
}

func (n NewsConfig) BreakerTimeout() time.Duration {
	return time.Duration(n.BreakerTimeoutSeconds) * time.Second
}

func (a AssistantConfig) PollInterval() time.Duration {
	return time.Duration(a.PollIntervalMillis) * time.Millisecond
}

func (a AssistantConfig) RunTimeout() time.Duration {
	return time.Duration(a.RunTimeoutSeconds) * time.Second
}

func (a AssistantConfig) RequestTimeout() time.Duration {
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionDays) * 24 * time.Hour
}
