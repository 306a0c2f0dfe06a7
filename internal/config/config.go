// Package config loads and validates crawler configuration via Viper.
// The result is an immutable struct constructed once at startup; core
// logic never reads the environment directly.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bexardata/deedcrawler/internal/window"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Portal  PortalConfig  `mapstructure:"portal"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Browser BrowserConfig `mapstructure:"browser"`
	DB      DBConfig      `mapstructure:"db"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PortalConfig identifies the upstream records portal search.
type PortalConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Department string `mapstructure:"department"`
	DocTypes   string `mapstructure:"doc_types"`
	SortBy     string `mapstructure:"sort_by"`
	SortOrder  string `mapstructure:"sort_order"`
}

// CrawlConfig governs the window/resume controller.
type CrawlConfig struct {
	DefaultEndDate string `mapstructure:"default_end_date"`
	MinStartDate   string `mapstructure:"min_start_date"`
	WindowYears    int    `mapstructure:"window_years"`

	PageSize      int `mapstructure:"page_size"`
	OffsetCeiling int `mapstructure:"offset_ceiling"`
	BatchSize     int `mapstructure:"batch_size"`

	MaxPagesPerSession   int `mapstructure:"max_pages_per_session"`
	CIMaxPagesPerSession int `mapstructure:"ci_max_pages_per_session"`
	BreakEveryNPages     int `mapstructure:"break_every_n_pages"`

	MinDelay   time.Duration `mapstructure:"min_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	BreakMin   time.Duration `mapstructure:"break_min"`
	BreakMax   time.Duration `mapstructure:"break_max"`
	PageSettle time.Duration `mapstructure:"page_settle"`
	RetryPause time.Duration `mapstructure:"retry_pause"`

	CeilingMarkers []string `mapstructure:"ceiling_markers"`
	StateFile      string   `mapstructure:"state_file"`

	// CI reports a constrained scheduled-runner environment; it tightens
	// the per-run page budget. Bound to GITHUB_ACTIONS.
	CI bool `mapstructure:"ci"`
}

// BrowserConfig configures the headless browsing session.
type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless"`
	UserAgent     string        `mapstructure:"user_agent"`
	ProxyURL      string        `mapstructure:"proxy_url"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
	NavQPS        float64       `mapstructure:"nav_qps"`
	OpenSettle    time.Duration `mapstructure:"open_settle"`
}

// DBConfig controls access to the relational store. An empty URL disables
// persistence entirely; the crawl still runs and buffers.
type DBConfig struct {
	URL string `mapstructure:"url"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEEDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The original deployment drives these without a prefix.
	_ = v.BindEnv("db.url", "DEEDS_DB_URL", "DATABASE_URL")
	_ = v.BindEnv("browser.headless", "DEEDS_BROWSER_HEADLESS", "HEADLESS")
	_ = v.BindEnv("crawl.ci", "DEEDS_CRAWL_CI", "GITHUB_ACTIONS")

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
	v.SetDefault("portal.base_url", "https://bexar.tx.publicsearch.us/results")
	v.SetDefault("portal.department", "RP")
	v.SetDefault("portal.doc_types", "DEED")
	v.SetDefault("portal.sort_by", "recordedDate")
	v.SetDefault("portal.sort_order", "desc")

	v.SetDefault("crawl.default_end_date", "20260121")
	v.SetDefault("crawl.min_start_date", "18000101")
	v.SetDefault("crawl.window_years", 10)
	v.SetDefault("crawl.page_size", 250)
	v.SetDefault("crawl.offset_ceiling", 9500)
	v.SetDefault("crawl.batch_size", 1000)
	v.SetDefault("crawl.max_pages_per_session", 1000)
	v.SetDefault("crawl.ci_max_pages_per_session", 180)
	v.SetDefault("crawl.break_every_n_pages", 50)
	v.SetDefault("crawl.min_delay", "3s")
	v.SetDefault("crawl.max_delay", "7s")
	v.SetDefault("crawl.break_min", "60s")
	v.SetDefault("crawl.break_max", "180s")
	v.SetDefault("crawl.page_settle", "3s")
	v.SetDefault("crawl.retry_pause", "10s")
	v.SetDefault("crawl.ceiling_markers", []string{"limit", "error"})
	v.SetDefault("crawl.state_file", "scraper_state.json")

	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.user_agent",
		"Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0")
	v.SetDefault("browser.render_timeout", "60s")
	v.SetDefault("browser.nav_qps", 0.5)
	v.SetDefault("browser.open_settle", "5s")

	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Portal.BaseURL == "" {
		return fmt.Errorf("portal.base_url is required")
	}
	if _, err := time.Parse(window.DateLayout, c.Crawl.DefaultEndDate); err != nil {
		return fmt.Errorf("crawl.default_end_date must be YYYYMMDD: %w", err)
	}
	if _, err := time.Parse(window.DateLayout, c.Crawl.MinStartDate); err != nil {
		return fmt.Errorf("crawl.min_start_date must be YYYYMMDD: %w", err)
	}
	if c.Crawl.WindowYears <= 0 {
		return fmt.Errorf("crawl.window_years must be > 0")
	}
	if c.Crawl.PageSize <= 0 {
		return fmt.Errorf("crawl.page_size must be > 0")
	}
	if c.Crawl.OffsetCeiling <= 0 {
		return fmt.Errorf("crawl.offset_ceiling must be > 0")
	}
	if c.Crawl.BatchSize <= 0 {
		return fmt.Errorf("crawl.batch_size must be > 0")
	}
	if c.Crawl.MaxDelay < c.Crawl.MinDelay {
		return fmt.Errorf("crawl.max_delay must be >= crawl.min_delay")
	}
	if c.Browser.RenderTimeout <= 0 {
		return fmt.Errorf("browser.render_timeout must be > 0")
	}
	return nil
}

// SessionPageBudget returns the per-run page budget, tightened under CI.
func (c Config) SessionPageBudget() int {
	if c.Crawl.CI {
		return c.Crawl.CIMaxPagesPerSession
	}
	return c.Crawl.MaxPagesPerSession
}
