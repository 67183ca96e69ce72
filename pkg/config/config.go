package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the Himera continuity bot.
type Config struct {
	AppEnv   string         `mapstructure:"app_env"`
	Bot      BotConfig      `mapstructure:"bot"`
	Session  SessionConfig  `mapstructure:"session"`
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Server   ServerConfig   `mapstructure:"server"`
	Help     HelpConfig     `mapstructure:"help"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token   string        `mapstructure:"token" validate:"required"`
	Mode    string        `mapstructure:"mode" validate:"omitempty,oneof=polling webhook"`
	Timeout time.Duration `mapstructure:"timeout"`
	// LogChannel is the chat that receives lifecycle status messages. Zero disables it.
	LogChannel    int64  `mapstructure:"log_channel"`
	WebhookListen string `mapstructure:"webhook_listen"`
	// Offline builds the bot without contacting Telegram.
	Offline bool `mapstructure:"offline"`
}

// SessionConfig points at the local session material file.
type SessionConfig struct {
	FilePath string `mapstructure:"file_path" validate:"required"`
}

// StoreConfig selects the document store backing the session collection.
type StoreConfig struct {
	Driver     string `mapstructure:"driver" validate:"required,oneof=memory redis postgres sqlite"`
	Collection string `mapstructure:"collection" validate:"required"`
}

// RedisConfig mirrors pkg/redis.Config for viper decoding.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DatabaseConfig holds SQL connection settings for the postgres and sqlite drivers.
type DatabaseConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	SSLMode        string        `mapstructure:"sslmode"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	MigrationsDir  string        `mapstructure:"migrations_dir"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// ServerConfig configures the ops HTTP server exposing metrics and probes.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

// HelpConfig drives the start/help menus.
type HelpConfig struct {
	Topics          []string `mapstructure:"topics"`
	DefaultLanguage string   `mapstructure:"default_language"`
	LocalesDir      string   `mapstructure:"locales_dir"`
	StatusPageURL   string   `mapstructure:"status_page_url"`
	DashboardURL    string   `mapstructure:"dashboard_url"`
	PrivacyURL      string   `mapstructure:"privacy_url"`
}

// LogChannelEnabled reports whether lifecycle status messages have a destination.
func (c *Config) LogChannelEnabled() bool {
	return c.Bot.LogChannel != 0
}

// GetDBConnectionString returns PostgreSQL DSN based on config values.
func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) applyDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "polling"
	}
	if c.Bot.Timeout <= 0 {
		c.Bot.Timeout = 10 * time.Second
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "SESSION"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "json"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.HealthTimeout <= 0 {
		c.Server.HealthTimeout = 2 * time.Second
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "migrations"
	}
	if c.Database.ConnectTimeout <= 0 {
		c.Database.ConnectTimeout = 30 * time.Second
	}
	if c.Redis.ConnectTimeout <= 0 {
		c.Redis.ConnectTimeout = 30 * time.Second
	}
	if c.Help.DefaultLanguage == "" {
		c.Help.DefaultLanguage = "en"
	}
	if c.Help.LocalesDir == "" {
		c.Help.LocalesDir = "internal/i18n/locales"
	}
	if len(c.Help.Topics) == 0 {
		c.Help.Topics = []string{"main", "lifecycle"}
	}
}
