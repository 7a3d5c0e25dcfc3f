package config

import (
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NEWSDIGEST_CONFIG"

	databaseDriverEnv  = "DATABASE_DRIVER"
	databaseDSNEnv     = "DATABASE_DSN"
	llmProviderEnv     = "LLM_PROVIDER"
	llmAPIKeyEnv       = "LLM_API_KEY"
	llmModelEnv        = "LLM_MODEL"
	llmEndpointEnv     = "LLM_ENDPOINT"
	tradingViewCookie  = "TRADINGVIEW_COOKIE"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	logLevelEnv        = "LOG_LEVEL"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultSummaryText = "You are a helpful assistant that summarizes news articles concisely. Output format: Summary: <summary>"
	defaultReportText  = "You are a financial analyst. Generate a concise daily news report based on the provided summaries. Highlight key trends or important events."
)

// Config holds high-level settings required across the application.
// It is loaded once at startup and passed by value afterwards.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	News          NewsConfig         `yaml:"news"`
	Extractor     ExtractorConfig    `yaml:"extractor"`
	LLM           LLMConfig          `yaml:"llm"`
	Notifications NotificationConfig `yaml:"notifications"`
	Report        ReportConfig       `yaml:"report"`
	Logging       LoggingConfig      `yaml:"logging"`
}

// DatabaseConfig selects the store backend. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// SchedulerConfig defines when periodic runs fire.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	LookbackDays   int            `yaml:"lookbackDays"`
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

// NewsConfig describes the news-list provider and the document fetch.
type NewsConfig struct {
	Provider       string   `yaml:"provider"`
	ListURL        string   `yaml:"listUrl"`
	BaseURL        string   `yaml:"baseUrl"`
	Exchange       string   `yaml:"exchange"`
	Language       string   `yaml:"language"`
	Symbols        []string `yaml:"symbols"`
	WindowDays     int      `yaml:"windowDays"`
	MarketOpen     string   `yaml:"marketOpen"`
	TimeoutSeconds int      `yaml:"timeoutSeconds"`
	UserAgent      string   `yaml:"userAgent"`
	Cookie         string   `yaml:"cookie"`
	SnapshotDir    string   `yaml:"snapshotDir"`
}

// Timeout returns the document fetch timeout.
func (n NewsConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// OpenAt returns the hour and minute the collection window starts at.
func (n NewsConfig) OpenAt() (int, int) {
	t, err := time.Parse("15:04", strings.TrimSpace(n.MarketOpen))
	if err != nil {
		return 9, 30
	}
	return t.Hour(), t.Minute()
}

// ExtractorConfig overrides the selectors used for article extraction.
type ExtractorConfig struct {
	ScriptType     string   `yaml:"scriptType"`
	TitleSelectors []string `yaml:"titleSelectors"`
	BodySelector   string   `yaml:"bodySelector"`
}

// LLMConfig defines how to contact the summarization model.
// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
type LLMConfig struct {
	Provider      string `yaml:"provider"`
	Endpoint      string `yaml:"endpoint"`
	Model         string `yaml:"model"`
	APIKey        string `yaml:"apiKey"`
	MaxTokens     int    `yaml:"maxTokens"`
	SummaryPrompt string `yaml:"summaryPrompt"`
	ReportPrompt  string `yaml:"reportPrompt"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	APIBase  string `yaml:"apiBase"`
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both bot token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ReportConfig controls reports produced by scheduled runs.
type ReportConfig struct {
	PublishAfterRun bool `yaml:"publishAfterRun"`
}

// LoggingConfig selects log verbosity and output format ("text" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the file named by NEWSDIGEST_CONFIG (if any).
func Load() Config {
	return LoadFrom(os.Getenv(configPathEnv))
}

// LoadFrom reads YAML configuration at path (if present), merges it over the
// defaults and applies environment overrides.
func LoadFrom(path string) Config {
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

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	overrides := []struct {
		env    string
		target *string
	}{
		{databaseDriverEnv, &c.Database.Driver},
		{databaseDSNEnv, &c.Database.DSN},
		{llmProviderEnv, &c.LLM.Provider},
		{llmAPIKeyEnv, &c.LLM.APIKey},
		{llmModelEnv, &c.LLM.Model},
		{llmEndpointEnv, &c.LLM.Endpoint},
		{tradingViewCookie, &c.News.Cookie},
		{telegramTokenEnv, &c.Notifications.Telegram.BotToken},
		{telegramChatIDEnv, &c.Notifications.Telegram.ChatID},
		{logLevelEnv, &c.Logging.Level},
	}

	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.target = v
		}
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
	mergeString(&base.Database.Driver, override.Database.Driver)
	mergeString(&base.Database.DSN, override.Database.DSN)

	mergeString(&base.Scheduler.CronExpression, override.Scheduler.CronExpression)
	mergeString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	mergeInt(&base.Scheduler.LookbackDays, override.Scheduler.LookbackDays)

	mergeString(&base.News.Provider, override.News.Provider)
	mergeString(&base.News.ListURL, override.News.ListURL)
	mergeString(&base.News.BaseURL, override.News.BaseURL)
	mergeString(&base.News.Exchange, override.News.Exchange)
	mergeString(&base.News.Language, override.News.Language)
	mergeInt(&base.News.WindowDays, override.News.WindowDays)
	mergeString(&base.News.MarketOpen, override.News.MarketOpen)
	mergeInt(&base.News.TimeoutSeconds, override.News.TimeoutSeconds)
	mergeString(&base.News.UserAgent, override.News.UserAgent)
	mergeString(&base.News.Cookie, override.News.Cookie)
	mergeString(&base.News.SnapshotDir, override.News.SnapshotDir)
	if len(override.News.Symbols) > 0 {
		base.News.Symbols = override.News.Symbols
	}

	mergeString(&base.Extractor.ScriptType, override.Extractor.ScriptType)
	mergeString(&base.Extractor.BodySelector, override.Extractor.BodySelector)
	if len(override.Extractor.TitleSelectors) > 0 {
		base.Extractor.TitleSelectors = override.Extractor.TitleSelectors
	}

	mergeString(&base.LLM.Provider, override.LLM.Provider)
	mergeString(&base.LLM.Endpoint, override.LLM.Endpoint)
	mergeString(&base.LLM.Model, override.LLM.Model)
	mergeString(&base.LLM.APIKey, override.LLM.APIKey)
	mergeInt(&base.LLM.MaxTokens, override.LLM.MaxTokens)
	mergeString(&base.LLM.SummaryPrompt, override.LLM.SummaryPrompt)
	mergeString(&base.LLM.ReportPrompt, override.LLM.ReportPrompt)

	mergeString(&base.Notifications.Telegram.APIBase, override.Notifications.Telegram.APIBase)
	mergeString(&base.Notifications.Telegram.BotToken, override.Notifications.Telegram.BotToken)
	mergeString(&base.Notifications.Telegram.ChatID, override.Notifications.Telegram.ChatID)

	if override.Report.PublishAfterRun {
		base.Report.PublishAfterRun = true
	}

	mergeString(&base.Logging.Level, override.Logging.Level)
	mergeString(&base.Logging.Format, override.Logging.Format)

	return base
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Driver: "sqlite", DSN: "news_data.db"},
		Scheduler: SchedulerConfig{
			CronExpression: "0 10 * * 1-5",
			Timezone:       defaultTimezone,
			LookbackDays:   1,
			location:       tz,
		},
		News: NewsConfig{
			Provider:       "tradingview",
			ListURL:        "https://news-mediator.tradingview.com/news-flow/v1/news",
			BaseURL:        "https://www.tradingview.com",
			Exchange:       "NASDAQ",
			Language:       "en",
			WindowDays:     1,
			MarketOpen:     "09:30",
			TimeoutSeconds: 10,
			UserAgent:      defaultUserAgent,
			SnapshotDir:    "snapshots",
		},
		LLM: LLMConfig{
			Provider:      "openai",
			Endpoint:      "https://api.openai.com/v1/chat/completions",
			Model:         "gpt-5",
			MaxTokens:     2048,
			SummaryPrompt: defaultSummaryText,
			ReportPrompt:  defaultReportText,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBase: "https://api.telegram.org"},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
