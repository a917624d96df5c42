// Package config loads service configuration from defaults, an optional file and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable (RFIDSTOCK_ERP_URL, ...).
const EnvPrefix = "RFIDSTOCK"

// Config is the full service configuration.
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	ERP     ERPConfig     `mapstructure:"erp"`
	Auth    AuthConfig    `mapstructure:"auth"`
	RFID    RFIDConfig    `mapstructure:"rfid"`
	Journal JournalConfig `mapstructure:"journal"`
	Cache   CacheConfig   `mapstructure:"cache"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// IsDevelopment reports whether the console log encoder should be used.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// ERPConfig points at the Frappe/ERPNext site.
type ERPConfig struct {
	URL string `mapstructure:"url"`
	// APIKey and APISecret are used when a request carries no user credentials
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// RFIDConfig selects the tag reader driver.
type RFIDConfig struct {
	// Driver is one of mock, stream, none
	Driver     string        `mapstructure:"driver"`
	MockTags   []string      `mapstructure:"mock_tags"`
	Interval   time.Duration `mapstructure:"interval"`
	StreamPath string        `mapstructure:"stream_path"`
	Buffer     int           `mapstructure:"buffer"`
}

// JournalConfig enables the Postgres scan journal when DSN is set.
type JournalConfig struct {
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`

	// CompressThreshold is the snapshot size above which snapshots are zstd compressed
	CompressThreshold int `mapstructure:"compress_threshold"`
}

type CacheConfig struct {
	LinkOptionsSize int           `mapstructure:"link_options_size"`
	LinkOptionsTTL  time.Duration `mapstructure:"link_options_ttl"`
}

// Load reads configuration. The file named by RFIDSTOCK_CONFIG is optional;
// environment variables always win.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	if c.ERP.URL == "" {
		return fmt.Errorf("erp.url is required")
	}
	switch c.RFID.Driver {
	case "mock", "stream", "none":
	default:
		return fmt.Errorf("rfid.driver: unknown driver %q", c.RFID.Driver)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required when auth is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default, otherwise AutomaticEnv never sees it during Unmarshal.
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("erp.url", "")
	v.SetDefault("erp.api_key", "")
	v.SetDefault("erp.api_secret", "")
	v.SetDefault("erp.timeout", 30*time.Second)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("rfid.driver", "mock")
	v.SetDefault("rfid.mock_tags", []string{"E28011700000021ABC48825B"})
	v.SetDefault("rfid.interval", time.Second)
	v.SetDefault("rfid.stream_path", "")
	v.SetDefault("rfid.buffer", 64)

	v.SetDefault("journal.dsn", "")
	v.SetDefault("journal.max_conns", 8)
	v.SetDefault("journal.statement_timeout", 5*time.Second)
	v.SetDefault("journal.compress_threshold", 4096)

	v.SetDefault("cache.link_options_size", 256)
	v.SetDefault("cache.link_options_ttl", 5*time.Minute)
}
