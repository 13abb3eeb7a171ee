package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"draftbot/internal/content"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	HTTP      HTTPConfig      `yaml:"http"`
	Community CommunityConfig `yaml:"community"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sources   []SourceConfig  `yaml:"sources"`
	Mailbox   MailboxConfig   `yaml:"mailbox"`
	Facebook  FacebookConfig  `yaml:"facebook"`
	Twilio    TwilioConfig    `yaml:"twilio"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Render    RenderConfig    `yaml:"render"`
	Redfin    RedfinConfig    `yaml:"redfin"`
	Rules     content.Rules   `yaml:"rules"`
	LogLevel  string          `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type CommunityConfig struct {
	Name    string   `yaml:"name"`
	SignOff []string `yaml:"sign_off"`
}

// PipelineConfig tunes the draft lifecycle controller. CapExemptTypes lists
// the draft types the daily cap does not count; whether LISTINGS joins
// MARKET there is an operator decision, not hard-coded.
type PipelineConfig struct {
	DailyCap       int           `yaml:"daily_cap"`
	CapExemptTypes []string      `yaml:"cap_exempt_types"`
	AutoApprove    bool          `yaml:"auto_approve"`
	PublishRetry   RetryConfig   `yaml:"publish_retry"`
	SourceTimeout  time.Duration `yaml:"source_timeout"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
}

type SchedulerConfig struct {
	Timezone  string `yaml:"timezone"`
	DailyAt   string `yaml:"daily_at"`
	WeeklyDay string `yaml:"weekly_day"`
	WeeklyAt  string `yaml:"weekly_at"`

	location *time.Location
}

// Location resolves the configured timezone, falling back to UTC.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// SourceConfig describes one candidate feed. HTML sources carry goquery
// selectors for item extraction.
type SourceConfig struct {
	Name      string          `yaml:"name"`
	Type      string          `yaml:"type"` // "rss" or "html"
	URL       string          `yaml:"url"`
	MaxItems  int             `yaml:"max_items"`
	Selectors SelectorsConfig `yaml:"selectors"`
}

type SelectorsConfig struct {
	Item    string `yaml:"item"`
	Title   string `yaml:"title"`
	Link    string `yaml:"link"`
	Snippet string `yaml:"snippet"`
}

type MailboxConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Token          string        `yaml:"token"`
	AllowedSenders []string      `yaml:"allowed_senders"`
	AllowedDomains []string      `yaml:"allowed_domains"`
	Timeout        time.Duration `yaml:"timeout"`
	Retry          RetryConfig   `yaml:"retry"`
}

type FacebookConfig struct {
	PageID      string        `yaml:"page_id"`
	AccessToken string        `yaml:"access_token"`
	Timeout     time.Duration `yaml:"timeout"`
}

type TwilioConfig struct {
	AccountSID    string `yaml:"account_sid"`
	AuthToken     string `yaml:"auth_token"`
	FromNumber    string `yaml:"from_number"`
	ApproverPhone string `yaml:"approver_phone"`
}

type SheetsConfig struct {
	SpreadsheetID string `yaml:"spreadsheet_id"`
	SheetRange    string `yaml:"sheet_range"`
	AccessToken   string `yaml:"access_token"`
}

type RenderConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

type RedfinConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.bindTimezone(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":3000"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "draftbot"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "drafts"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "draft_events"
	}
	if c.Community.Name == "" {
		c.Community.Name = "Two Rivers"
	}
	if c.Pipeline.DailyCap == 0 {
		c.Pipeline.DailyCap = 1
	}
	if len(c.Pipeline.CapExemptTypes) == 0 {
		c.Pipeline.CapExemptTypes = []string{"MARKET"}
	}
	if c.Pipeline.PublishRetry.MaxAttempts == 0 {
		c.Pipeline.PublishRetry.MaxAttempts = 3
	}
	if c.Pipeline.PublishRetry.InitialBackoff == 0 {
		c.Pipeline.PublishRetry.InitialBackoff = 600 * time.Millisecond
	}
	if c.Pipeline.SourceTimeout == 0 {
		c.Pipeline.SourceTimeout = 15 * time.Second
	}
	if c.Scheduler.Timezone == "" {
		c.Scheduler.Timezone = "America/New_York"
	}
	if c.Scheduler.DailyAt == "" {
		c.Scheduler.DailyAt = "08:00"
	}
	if c.Scheduler.WeeklyDay == "" {
		c.Scheduler.WeeklyDay = "Tuesday"
	}
	if c.Scheduler.WeeklyAt == "" {
		c.Scheduler.WeeklyAt = "09:00"
	}
	if c.Mailbox.Timeout == 0 {
		c.Mailbox.Timeout = 30 * time.Second
	}
	if c.Mailbox.Retry.MaxAttempts == 0 {
		c.Mailbox.Retry.MaxAttempts = 3
	}
	if c.Mailbox.Retry.InitialBackoff == 0 {
		c.Mailbox.Retry.InitialBackoff = time.Second
	}
	if c.Facebook.Timeout == 0 {
		c.Facebook.Timeout = 15 * time.Second
	}
	if c.Render.Timeout == 0 {
		c.Render.Timeout = 20 * time.Second
	}
	if c.Redfin.URL == "" {
		c.Redfin.URL = "https://www.redfin.com/zipcode/33541/housing-market"
	}
	if c.Redfin.Timeout == 0 {
		c.Redfin.Timeout = 15 * time.Second
	}
	if c.Sheets.SheetRange == "" {
		c.Sheets.SheetRange = "Draft_Queue!A:J"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	defaults := content.DefaultRules()
	if len(c.Rules.CommunityTerms) == 0 {
		c.Rules.CommunityTerms = defaults.CommunityTerms
	}
	if len(c.Rules.BroaderAreaTerms) == 0 {
		c.Rules.BroaderAreaTerms = defaults.BroaderAreaTerms
	}
	if len(c.Rules.ImpactTerms) == 0 {
		c.Rules.ImpactTerms = defaults.ImpactTerms
	}
	if len(c.Rules.Categories) == 0 {
		c.Rules.Categories = defaults.Categories
	}
	if len(c.Rules.Denylist) == 0 {
		c.Rules.Denylist = defaults.Denylist
	}
}

func (c *Config) bindTimezone() error {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Scheduler.Timezone, err)
	}
	c.Scheduler.location = loc
	return nil
}
