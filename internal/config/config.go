package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8080"
	DefaultAssistantModel = "gpt-4o-2024-08-06"
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultPollIntervalMs = 100
	DefaultPollTimeoutSec = 120
	DefaultSegmentLimit   = 1993
	DefaultMaxSegments    = 6
	DefaultJWTExpiresIn   = "24h"
	DefaultPGHost         = ""
	DefaultPGPort         = 5432
	DefaultPGUser         = "postgres"
	DefaultPGDatabase     = "runbridge"
	DefaultPGSSLMode      = "disable"
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Admin     AdminConfig     `toml:"admin"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Assistant AssistantConfig `toml:"assistant"`
	Reply     ReplyConfig     `toml:"reply"`
	Discord   DiscordConfig   `toml:"discord"`
	Telegram  TelegramConfig  `toml:"telegram"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// Enabled reports whether a Postgres-backed mapping store was configured.
// When false, the in-memory store is used.
func (c PostgresConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// DSN builds the pgx connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type AssistantConfig struct {
	APIKey         string `toml:"api_key" validate:"required"`
	AssistantID    string `toml:"assistant_id" validate:"required"`
	Model          string `toml:"model"`
	BaseURL        string `toml:"base_url"`
	PollIntervalMs int    `toml:"poll_interval_ms" validate:"gte=0"`
	PollTimeoutSec int    `toml:"poll_timeout_sec" validate:"gte=0"`
}

type ReplyConfig struct {
	SegmentLimit int `toml:"segment_limit" validate:"gte=0"`
	MaxSegments  int `toml:"max_segments" validate:"gte=0"`
}

type DiscordConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
}

type TelegramConfig struct {
	Enabled  bool   `toml:"enabled"`
	BotToken string `toml:"bot_token"`
}

// Load reads the TOML config at path, seeding defaults first and applying
// environment overrides for secrets afterwards. A missing file is not an
// error; the defaults plus environment are used as-is.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Assistant: AssistantConfig{
			Model:          DefaultAssistantModel,
			BaseURL:        DefaultBaseURL,
			PollIntervalMs: DefaultPollIntervalMs,
			PollTimeoutSec: DefaultPollTimeoutSec,
		},
		Reply: ReplyConfig{
			SegmentLimit: DefaultSegmentLimit,
			MaxSegments:  DefaultMaxSegments,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Assistant.APIKey = v
	}
	if v := os.Getenv("ASSISTANT_ID"); v != "" {
		cfg.Assistant.AssistantID = v
	}
	if v := os.Getenv("DISCORD_BOT_TOKEN"); v != "" {
		cfg.Discord.BotToken = v
		cfg.Discord.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
		cfg.Telegram.Enabled = true
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

// Validate checks the loaded config for required assistant settings and at
// least one enabled transport.
func (c Config) Validate() error {
	if err := validator.New().Struct(c.Assistant); err != nil {
		return fmt.Errorf("assistant config: %w", err)
	}
	if !c.Discord.Enabled && !c.Telegram.Enabled {
		return fmt.Errorf("no chat transport enabled")
	}
	if c.Discord.Enabled && strings.TrimSpace(c.Discord.BotToken) == "" {
		return fmt.Errorf("discord enabled without bot token")
	}
	if c.Telegram.Enabled && strings.TrimSpace(c.Telegram.BotToken) == "" {
		return fmt.Errorf("telegram enabled without bot token")
	}
	return nil
}
