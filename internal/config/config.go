package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Europe/Kyiv"
	configPathEnv     = "BILLS_MONITOR_CONFIG"
	envFileEnv        = "BILLS_MONITOR_ENV_FILE"
	ledgerDSNEnv      = "LEDGER_DSN"
	logLevelEnv       = "LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	legacyTokenEnv    = "TELEGRAM_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Ledger drivers.
const (
	LedgerFile     = "file"
	LedgerPostgres = "postgres"
	LedgerSQLite   = "sqlite"
	LedgerRedis    = "redis"
)

// Config holds high-level settings required across the application.
type Config struct {
	Source        SourceConfig       `yaml:"source"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Filter        FilterConfig       `yaml:"filter"`
	Extract       ExtractConfig      `yaml:"extract"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// SourceConfig points at the bill register.
type SourceConfig struct {
	BaseURL     string        `yaml:"baseUrl"`
	ListingPath string        `yaml:"listingPath"`
	DetailPath  string        `yaml:"detailPath"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SchedulerConfig defines when the poll cycle runs.
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
	return time.UTC
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string        `yaml:"botToken"`
	ChatID   string        `yaml:"chatId"`
	APIURL   string        `yaml:"apiUrl"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Enabled reports whether both secrets are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// LedgerConfig selects where processed bill ids are kept.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Key    string `yaml:"key"`
}

// PipelineConfig tunes the poll cycle policy.
type PipelineConfig struct {
	// RetryFailedDetails keeps bills whose card could not be loaded out of the ledger,
	// so the next cycle tries them again.
	RetryFailedDetails bool `yaml:"retryFailedDetails"`
}

// FilterConfig overrides the keyword taxonomy.
type FilterConfig struct {
	Keywords []string `yaml:"keywords"`
}

// ExtractConfig overrides the title window phrases.
type ExtractConfig struct {
	StartPhrases []string `yaml:"startPhrases"`
	StopPhrases  []string `yaml:"stopPhrases"`
}

// MetricsConfig enables the Prometheus endpoint when ListenAddr is set.
type MetricsConfig struct {
	ListenAddr string `yaml:"listenAddr"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration from the env-provided path (if any) and applies overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile reads YAML configuration from path (if non-empty), then .env and environment overrides.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
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

	if err := loadEnvFile(); err != nil {
		log.Printf("config: %v", err)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// loadEnvFile loads secrets from BILLS_MONITOR_ENV_FILE or ./.env. A missing file is not an error;
// variables already present in the environment win.
func loadEnvFile() error {
	envFile := os.Getenv(envFileEnv)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	} else if v := os.Getenv(legacyTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(ledgerDSNEnv); v != "" {
		c.Ledger.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to UTC", tz)
		loc = time.UTC
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Source.BaseURL != "" {
		base.Source.BaseURL = override.Source.BaseURL
	}
	if override.Source.ListingPath != "" {
		base.Source.ListingPath = override.Source.ListingPath
	}
	if override.Source.DetailPath != "" {
		base.Source.DetailPath = override.Source.DetailPath
	}
	if override.Source.Timeout > 0 {
		base.Source.Timeout = override.Source.Timeout
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIURL != "" {
		base.Notifications.Telegram.APIURL = override.Notifications.Telegram.APIURL
	}
	if override.Notifications.Telegram.Timeout > 0 {
		base.Notifications.Telegram.Timeout = override.Notifications.Telegram.Timeout
	}

	if override.Ledger.Driver != "" {
		base.Ledger.Driver = override.Ledger.Driver
	}
	if override.Ledger.Path != "" {
		base.Ledger.Path = override.Ledger.Path
	}
	if override.Ledger.DSN != "" {
		base.Ledger.DSN = override.Ledger.DSN
	}
	if override.Ledger.Key != "" {
		base.Ledger.Key = override.Ledger.Key
	}

	base.Pipeline.RetryFailedDetails = override.Pipeline.RetryFailedDetails

	if len(override.Filter.Keywords) > 0 {
		base.Filter.Keywords = override.Filter.Keywords
	}
	if len(override.Extract.StartPhrases) > 0 {
		base.Extract.StartPhrases = override.Extract.StartPhrases
	}
	if len(override.Extract.StopPhrases) > 0 {
		base.Extract.StopPhrases = override.Extract.StopPhrases
	}

	if override.Metrics.ListenAddr != "" {
		base.Metrics.ListenAddr = override.Metrics.ListenAddr
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Source: SourceConfig{
			BaseURL:     "https://itd.rada.gov.ua",
			ListingPath: "/billinfo/Bills/period",
			DetailPath:  "/billinfo/Bills/Card/",
			Timeout:     30 * time.Second,
		},
		Scheduler: SchedulerConfig{CronExpression: "@every 1h", Timezone: defaultTimezone},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{
				APIURL:  "https://api.telegram.org",
				Timeout: 30 * time.Second,
			},
		},
		Ledger: LedgerConfig{
			Driver: LedgerFile,
			Path:   "seen_bills.json",
			Key:    "billsmonitor:seen",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
