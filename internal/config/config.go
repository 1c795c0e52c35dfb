// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token      string  `yaml:"token"`
	Mode       string  `yaml:"mode"`        // polling | webhook
	Port       int     `yaml:"port"`        // webhook listener port
	WebhookURL string  `yaml:"webhook_url"` // public base URL; the path derives from the token
	Username   string  `yaml:"username"`
	Workers    int     `yaml:"workers"` // update workers
	AdminIDs   []int64 `yaml:"admin_ids"`
	RatePerMin int     `yaml:"rate_per_min"` // per-user extraction requests per minute
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	Username      string        `yaml:"username"`
	Password      string        `yaml:"password"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`
	CookieDomain  string        `yaml:"cookie_domain"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIURL       string `yaml:"openai_url"` // optional OpenAI-compatible gateway
	DefaultModel    string `yaml:"default_model"`
	FallbackModel   string `yaml:"fallback_model"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"` // reject oversized messages before calling the model
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	ConcurrentLimit int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type EventsConfig struct {
	DefaultTimezone string `yaml:"default_timezone"` // IANA zone used when the user has none set
	ListLimit       int    `yaml:"list_limit"`       // events shown by /events
}

type SchedulerConfig struct {
	ReminderInterval time.Duration `yaml:"reminder_interval"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Events    EventsConfig    `yaml:"events"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	var cfg Config
	b, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// container deployments run on env vars alone
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)

	// defaults
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Port <= 0 {
		cfg.Bot.Port = 8443
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.RatePerMin <= 0 {
		cfg.Bot.RatePerMin = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.MaxPromptTokens <= 0 {
		cfg.AI.MaxPromptTokens = 2048
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gemini-1.5-flash-latest"
	}
	if cfg.AI.FallbackModel == "" {
		cfg.AI.FallbackModel = "gpt-4o-mini"
	}
	if cfg.Events.DefaultTimezone == "" {
		cfg.Events.DefaultTimezone = "Asia/Jerusalem"
	}
	if cfg.Events.ListLimit <= 0 {
		cfg.Events.ListLimit = 10
	}
	if cfg.Scheduler.ReminderInterval <= 0 {
		cfg.Scheduler.ReminderInterval = 30 * time.Second
	}
	if cfg.Scheduler.CleanupInterval <= 0 {
		cfg.Scheduler.CleanupInterval = time.Hour
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 12 * time.Hour
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if !dev && cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Bot.Mode != "polling" && cfg.Bot.Mode != "webhook" {
		return nil, fmt.Errorf("bot.mode must be polling or webhook, got %q", cfg.Bot.Mode)
	}
	if cfg.Bot.Mode == "webhook" && cfg.Bot.WebhookURL == "" {
		return nil, errors.New("bot.webhook_url is required in webhook mode")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if !dev && cfg.AI.GeminiKey == "" && cfg.AI.OpenAIKey == "" {
		return nil, errors.New("at least one of ai.gemini_key or ai.openai_key is required")
	}
	if _, err := time.LoadLocation(cfg.Events.DefaultTimezone); err != nil {
		return nil, fmt.Errorf("events.default_timezone: %w", err)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// applyEnv lets the container environment override the file. Names follow the
// deployment conventions this bot has always used.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.AI.GeminiKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.AI.OpenAIKey = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Bot.WebhookURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Bot.Port = p
		}
	}
	if v := os.Getenv("USE_WEBHOOKS"); strings.EqualFold(v, "true") {
		cfg.Bot.Mode = "webhook"
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		cfg.Security.EncryptionKey = v
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
