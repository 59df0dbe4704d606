package scrape

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bidintel/bidwatch/scrape/internal/index"
	"github.com/bidintel/bidwatch/scrape/internal/notify"
)

// Config is the top-level bidwatch configuration.
type Config struct {
	// BaseURL is the portal root.
	BaseURL string `yaml:"base_url"`

	// Database is the SQLite file path.
	Database string `yaml:"database"`

	Browser  BrowserConfig  `yaml:"browser"`
	Run      RunConfig      `yaml:"run"`
	Filters  FilterConfig   `yaml:"filters"`
	Blocking BlockingConfig `yaml:"blocking"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Notify   NotifyConfig   `yaml:"notify"`
	API      APIConfig      `yaml:"api"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome. Empty = launch
	// locally.
	Remote string `yaml:"remote"`

	// Headful opts into a visible browser window; the default is
	// headless.
	Headful bool `yaml:"headful"`

	// UserDataDir keeps one Chrome profile across runs.
	UserDataDir string `yaml:"user_data_dir"`
}

// RunConfig holds run pacing and sizing defaults; RunOptions can
// override workers and page bounds per run. Durations are whole
// seconds.
type RunConfig struct {
	Workers        int `yaml:"workers"`
	DelaySeconds   int `yaml:"delay_seconds"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
	MaxRetries     int `yaml:"max_retries"`
	StartPage      int `yaml:"start_page"`
	MaxPages       int `yaml:"max_pages"`
}

func (r RunConfig) delay() time.Duration   { return time.Duration(r.DelaySeconds) * time.Second }
func (r RunConfig) timeout() time.Duration { return time.Duration(r.TimeoutSeconds) * time.Second }

// FilterConfig narrows the listing index. Date values accept
// DD-MMM-YYYY or the keywords TODAY, YESTERDAY, AUTO.
type FilterConfig struct {
	PublishDateFrom  string `yaml:"publish_date_from"`
	PublishDateTo    string `yaml:"publish_date_to"`
	Classification   string `yaml:"classification"`
	BusinessCategory string `yaml:"business_category"`
}

// BlockingConfig overrides the response classifier's marker lists.
type BlockingConfig struct {
	BlockMarkers    []string `yaml:"block_markers"`
	NotFoundMarkers []string `yaml:"not_found_markers"`
}

// ScheduleConfig enables the daily scheduled run.
type ScheduleConfig struct {
	Enabled bool `yaml:"enabled"`
	Hour    int  `yaml:"hour"`
	Minute  int  `yaml:"minute"`
}

// NotifyConfig holds SMTP settings for run summary emails.
type NotifyConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
}

// APIConfig configures the run-trigger HTTP surface.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// LoadFile reads a YAML configuration file and applies defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scrape: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("scrape: parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://philgeps.gov.ph"
	}
	if c.Database == "" {
		c.Database = "data/bidwatch.db"
	}
	if c.Run.Workers <= 0 {
		c.Run.Workers = 2
	}
	if c.Run.DelaySeconds <= 0 {
		c.Run.DelaySeconds = 2
	}
	if c.Run.TimeoutSeconds <= 0 {
		c.Run.TimeoutSeconds = 30
	}
	if c.Run.MaxRetries <= 0 {
		c.Run.MaxRetries = 3
	}
	if c.Run.StartPage <= 0 {
		c.Run.StartPage = 1
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		c.Schedule.Hour = 6
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		c.Schedule.Minute = 0
	}
	if c.Notify.Port <= 0 {
		c.Notify.Port = 587
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8089"
	}
}

func (c *Config) indexFilters() index.Filters {
	return index.Filters{
		PublishDateFrom:  c.Filters.PublishDateFrom,
		PublishDateTo:    c.Filters.PublishDateTo,
		Classification:   c.Filters.Classification,
		BusinessCategory: c.Filters.BusinessCategory,
	}
}

func (c *Config) notifyConfig() notify.Config {
	return notify.Config{
		Host:     c.Notify.Host,
		Port:     c.Notify.Port,
		Username: c.Notify.Username,
		Password: c.Notify.Password,
		From:     c.Notify.From,
		To:       c.Notify.To,
	}
}
