// Package config loads the server configuration: struct defaults, then an
// optional YAML file, then MOTOCLUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every recognised environment variable.
const EnvPrefix = "MOTOCLUB_"

// PathEnvVar overrides the config file location.
const PathEnvVar = "MOTOCLUB_CONFIG"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{"motoclub.yaml", "/etc/motoclub/motoclub.yaml"}

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Settings SettingsConfig `koanf:"settings"`
	Auth     AuthConfig     `koanf:"auth"`
	Mail     MailConfig     `koanf:"mail"`
	Log      LogConfig      `koanf:"log"`
	Perf     PerfConfig     `koanf:"perf"`
	HTTP     HTTPConfig     `koanf:"http"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr      string `koanf:"addr"`
	Env       string `koanf:"env"`
	StaticDir string `koanf:"static_dir"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SettingsConfig points at the badger directory of the site settings.
type SettingsConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig holds session and seed-admin settings.
type AuthConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	CSRFKey         string        `koanf:"csrf_key"`
	SessionLifetime time.Duration `koanf:"session_lifetime"`
	AdminEmail      string        `koanf:"admin_email"`
	AdminPassword   string        `koanf:"admin_password"`
	AdminName       string        `koanf:"admin_name"`
}

// MailConfig configures contact form delivery.
type MailConfig struct {
	ResendKey string `koanf:"resend_key"`
	From      string `koanf:"from"`
	To        string `koanf:"to"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// PerfConfig holds slow-operation thresholds in milliseconds.
type PerfConfig struct {
	SlowQueryMs   int `koanf:"slow_query_ms"`
	SlowRequestMs int `koanf:"slow_request_ms"`
}

// HTTPConfig holds request limits.
type HTTPConfig struct {
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Default returns the configuration used before file and env overrides.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":8080", Env: "development", StaticDir: "static"},
		Database: DatabaseConfig{Path: "motoclub.db"},
		Settings: SettingsConfig{Path: "data/settings"},
		Auth: AuthConfig{
			SessionLifetime: 24 * time.Hour,
			AdminEmail:      "admin@motoclub.local",
			AdminName:       "Amministratore",
		},
		Mail: MailConfig{
			From: "Moto Club <noreply@motoclub.local>",
			To:   "info@motoclub.local",
		},
		Log:  LogConfig{Level: "info", Format: "json"},
		Perf: PerfConfig{SlowQueryMs: 50, SlowRequestMs: 200},
		HTTP: HTTPConfig{RateLimitPerMinute: 600},
	}
}

// Load builds the configuration from defaults, the config file and the environment.
// PRE: .env (if any) has already been loaded into the process environment
// POST: returns a validated Config
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run safely.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.IsProduction() {
		if len(c.Auth.JWTSecret) < 32 {
			return errors.New("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Auth.CSRFKey == "" {
			return errors.New("auth.csrf_key is required in production")
		}
	}
	if c.Auth.SessionLifetime <= 0 {
		return errors.New("auth.session_lifetime must be positive")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKeys maps MOTOCLUB_* variables (prefix stripped, lowercased) to config keys.
var envKeys = map[string]string{
	"addr":                  "server.addr",
	"env":                   "server.env",
	"static_dir":            "server.static_dir",
	"db_path":               "database.path",
	"settings_path":         "settings.path",
	"jwt_secret":            "auth.jwt_secret",
	"csrf_key":              "auth.csrf_key",
	"session_lifetime":      "auth.session_lifetime",
	"admin_email":           "auth.admin_email",
	"admin_password":        "auth.admin_password",
	"admin_name":            "auth.admin_name",
	"resend_key":            "mail.resend_key",
	"mail_from":             "mail.from",
	"mail_to":               "mail.to",
	"log_level":             "log.level",
	"log_format":            "log.format",
	"slow_query_ms":         "perf.slow_query_ms",
	"slow_request_ms":       "perf.slow_request_ms",
	"rate_limit_per_minute": "http.rate_limit_per_minute",
}

// envKey returns "" for unknown variables so koanf skips them.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envKeys[key]
}
