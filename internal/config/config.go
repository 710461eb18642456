package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone     = "UTC"
	configPathEnv       = "HORIZONSCAN_CONFIG"
	scanURLsEnv         = "HORIZONSCAN_URLS"
	databaseDSNEnv      = "DATABASE_DSN"
	classifierAPIKeyEnv = "CLASSIFIER_API_KEY"
	classifierModelEnv  = "CLASSIFIER_MODEL"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
)

// MaxScanURLs caps how many sites a single scan may cover.
const MaxScanURLs = 11

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scan          ScanConfig         `yaml:"scan"`
	Browser       BrowserConfig      `yaml:"browser"`
	Classifier    ClassifierConfig   `yaml:"classifier"`
	Database      DatabaseConfig     `yaml:"database"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// ScanConfig lists the monitored sites and where artifacts land.
type ScanConfig struct {
	URLs       []string `yaml:"urls"`
	Fetcher    string   `yaml:"fetcher"`
	OutputDir  string   `yaml:"outputDir"`
	ArchivePDF bool     `yaml:"archivePdf"`
}

// BrowserConfig tunes the headless browser used for fetching and rendering.
// ShowWindow disables headless mode for local debugging.
type BrowserConfig struct {
	ShowWindow     bool   `yaml:"showWindow"`
	ExecPath       string `yaml:"execPath"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	SettleSeconds  int    `yaml:"settleSeconds"`
}

// Headless reports whether Chrome should run without a window.
func (b BrowserConfig) Headless() bool {
	return !b.ShowWindow
}

// Timeout is the per-page rendering deadline.
func (b BrowserConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// Settle is how long to wait after load for scripts to populate content.
func (b BrowserConfig) Settle() time.Duration {
	return time.Duration(b.SettleSeconds) * time.Second
}

// ClassifierConfig defines how to contact the chat-completions API.
type ClassifierConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SchedulerConfig defines when recurring scans run. An empty cron
// expression means the scanner executes once and exits.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.Scan.URLs = NormalizeURLs(cfg.Scan.URLs)

	if len(cfg.Scan.URLs) == 0 {
		cfg.Scan.URLs = defaultConfig().Scan.URLs
	}

	return cfg
}

// NormalizeURLs trims, deduplicates, and caps a scan URL list.
func NormalizeURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	if len(out) > MaxScanURLs {
		log.Printf("config: %d scan urls given, keeping the first %d", len(out), MaxScanURLs)
		out = out[:MaxScanURLs]
	}
	return out
}

// ParseURLList splits a comma-separated URL list (CLI arg or env form).
func ParseURLList(raw string) []string {
	return NormalizeURLs(strings.Split(raw, ","))
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(scanURLsEnv); v != "" {
		c.Scan.URLs = ParseURLList(v)
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(classifierAPIKeyEnv); v != "" {
		c.Classifier.APIKey = v
	}

	if v := os.Getenv(classifierModelEnv); v != "" {
		c.Classifier.Model = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Scan.URLs) > 0 {
		base.Scan.URLs = override.Scan.URLs
	}
	if override.Scan.Fetcher != "" {
		base.Scan.Fetcher = override.Scan.Fetcher
	}
	if override.Scan.OutputDir != "" {
		base.Scan.OutputDir = override.Scan.OutputDir
	}
	if override.Scan.ArchivePDF {
		base.Scan.ArchivePDF = true
	}

	if override.Browser.ShowWindow {
		base.Browser.ShowWindow = true
	}
	if override.Browser.ExecPath != "" {
		base.Browser.ExecPath = override.Browser.ExecPath
	}
	if override.Browser.TimeoutSeconds > 0 {
		base.Browser.TimeoutSeconds = override.Browser.TimeoutSeconds
	}
	if override.Browser.SettleSeconds > 0 {
		base.Browser.SettleSeconds = override.Browser.SettleSeconds
	}

	if override.Classifier.Endpoint != "" {
		base.Classifier.Endpoint = override.Classifier.Endpoint
	}
	if override.Classifier.Model != "" {
		base.Classifier.Model = override.Classifier.Model
	}
	if override.Classifier.APIKey != "" {
		base.Classifier.APIKey = override.Classifier.APIKey
	}
	if override.Classifier.Temperature > 0 {
		base.Classifier.Temperature = override.Classifier.Temperature
	}
	if override.Classifier.MaxTokens > 0 {
		base.Classifier.MaxTokens = override.Classifier.MaxTokens
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Scan: ScanConfig{
			URLs: []string{
				"https://www.whitehouse.gov/briefing-room/",
				"https://www.bis.doc.gov/index.php/all-articles/17-about-bis/newsroom",
			},
			Fetcher:   "browser",
			OutputDir: "regulatory_outputs",
		},
		Browser: BrowserConfig{
			TimeoutSeconds: 60,
			SettleSeconds:  5,
		},
		Classifier: ClassifierConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			APIKey:      "",
			Temperature: 0.2,
			MaxTokens:   4096,
		},
		Database: DatabaseConfig{DSN: ""},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
		Scheduler: SchedulerConfig{CronExpression: "", Timezone: defaultTimezone, location: tz},
	}
}
