package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines editor server and build configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Upload  UploadConfig  `yaml:"upload"`
	Theme   ThemeConfig   `yaml:"theme"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SessionConfig struct {
	// TTL evicts sessions idle for longer than this.
	TTL time.Duration `yaml:"ttl"`
	// JanitorInterval is how often idle sessions are swept.
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

type UploadConfig struct {
	// Limit caps image uploads, in bytes.
	Limit int64 `yaml:"limit"`
}

type ThemeConfig struct {
	Name    string `yaml:"name"`
	Variant string `yaml:"variant"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			TTL:             30 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Upload: UploadConfig{
			Limit: 5 << 20,
		},
		Theme: ThemeConfig{
			Name:    "portfolio",
			Variant: "light",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("PORTFOLIO_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if addr := os.Getenv("PORTFOLIO_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if level := os.Getenv("PORTFOLIO_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if ttl := os.Getenv("PORTFOLIO_SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORTFOLIO_SESSION_TTL: %w", err)
		}
		cfg.Session.TTL = d
	}
	if limit := os.Getenv("PORTFOLIO_UPLOAD_LIMIT"); limit != "" {
		n, err := strconv.ParseInt(limit, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORTFOLIO_UPLOAD_LIMIT: %w", err)
		}
		cfg.Upload.Limit = n
	}
	if name := os.Getenv("PORTFOLIO_THEME"); name != "" {
		// name or name/variant
		theme, variant, found := strings.Cut(name, "/")
		cfg.Theme.Name = theme
		if found {
			cfg.Theme.Variant = variant
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("config: server.addr is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("config: session.ttl must be positive")
	}
	if c.Session.JanitorInterval <= 0 {
		return fmt.Errorf("config: session.janitor_interval must be positive")
	}
	if c.Upload.Limit <= 0 {
		return fmt.Errorf("config: upload.limit must be positive")
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level. Unknown names
// fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
