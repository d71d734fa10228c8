package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"health-chatbot/internal/platform/database"
)

// EnvPrefix marks the variables that override file settings:
// HEALTHBOT_DATABASE_URL sets database.url.
const EnvPrefix = "HEALTHBOT_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Telegram TelegramConfig `koanf:"telegram"`
	Report   ReportConfig   `koanf:"report"`
}

type ServerConfig struct {
	Port string `koanf:"port"`
	CORS string `koanf:"cors"`
}

type DatabaseConfig struct {
	Driver  string `koanf:"driver"`
	URL     string `koanf:"url"`
	Path    string `koanf:"path"`
	Seed    bool   `koanf:"seed"`
	Retries int    `koanf:"retries"`
}

type TelegramConfig struct {
	Token string `koanf:"token"`
	Chat  int64  `koanf:"chat"`
	API   string `koanf:"api"`
}

type ReportConfig struct {
	Fonts []string `koanf:"fonts"`
}

var defaults = map[string]any{
	"server.port":      "8080",
	"server.cors":      "*",
	"database.driver":  "sqlite",
	"database.url":     "",
	"database.path":    "data/healthbot.db",
	"database.seed":    true,
	"database.retries": 10,
	"telegram.token":   "",
	"telegram.chat":    0,
	"telegram.api":     "https://api.telegram.org",
	"report.fonts":     []string{},
}

// Load reads .env (if present), then the optional YAML file at path, then
// HEALTHBOT_* variables. Later sources win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("config default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envValue maps HEALTHBOT_REPORT_FONTS to report.fonts; list values are
// comma separated.
func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "_", ".")

	if key == "report.fonts" {
		var fonts []string
		for _, f := range strings.Split(value, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fonts = append(fonts, f)
			}
		}
		return key, fonts
	}
	return key, value
}

func (c *Config) Validate() error {
	dialect, err := database.ParseDialect(c.Database.Driver)
	if err != nil {
		return err
	}
	if dialect == database.Postgres && c.Database.URL == "" {
		return fmt.Errorf("database.url is required for the postgres driver")
	}
	if dialect == database.SQLite && c.Database.Path == "" {
		return fmt.Errorf("database.path is required for the sqlite driver")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}

// AlertsEnabled reports whether emergencies and reports can go to Telegram.
func (c *Config) AlertsEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.Chat != 0
}

// DatabaseOptions converts the database section for database.Open.
func (c *Config) DatabaseOptions() database.Options {
	return database.Options{
		Driver:  c.Database.Driver,
		URL:     c.Database.URL,
		Path:    c.Database.Path,
		Retries: c.Database.Retries,
	}
}
