// Package config loads configs/config.yml through viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigDir  = "configs"
	DefaultConfigName = "config"
	envPrefix         = "SIGNAL_CHART"

	// BaseDateLayout is the layout of range.base_date.
	BaseDateLayout = "2006-01-02"
)

type Config struct {
	Port     string       `mapstructure:"port"`
	LogLevel string       `mapstructure:"log_level"`
	DB       DBConfig     `mapstructure:"db"`
	Source   SourceConfig `mapstructure:"source"`
	Range    RangeConfig  `mapstructure:"range"`
	Chart    ChartConfig  `mapstructure:"chart"`
	Auth     AuthConfig   `mapstructure:"auth"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type SourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RangeConfig struct {
	BaseDate string `mapstructure:"base_date"`
	Days     int    `mapstructure:"days"`
}

// BaseTime parses BaseDate as a UTC calendar day.
func (r RangeConfig) BaseTime() (time.Time, error) {
	t, err := time.ParseInLocation(BaseDateLayout, r.BaseDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("range.base_date %q: %w", r.BaseDate, err)
	}
	return t, nil
}

type ChartConfig struct {
	DefaultEntityID int           `mapstructure:"default_entity_id"`
	Segments        int           `mapstructure:"segments"`
	DiscardStale    bool          `mapstructure:"discard_stale"`
	Visible         bool          `mapstructure:"visible"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type AuthConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"`
	SigningKey   string        `mapstructure:"signing_key"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         byte   `mapstructure:"qos"`
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", ":memory:")
	v.SetDefault("source.base_url", "https://p9eqfsm35e.execute-api.us-east-1.amazonaws.com/a-20240001-smt/data")
	v.SetDefault("source.timeout", 10*time.Second)
	v.SetDefault("range.base_date", "2024-01-01")
	v.SetDefault("range.days", 365)
	v.SetDefault("chart.default_entity_id", 1)
	v.SetDefault("chart.segments", 4)
	v.SetDefault("chart.discard_stale", true)
	v.SetDefault("chart.visible", true)
	v.SetDefault("chart.refresh_interval", time.Duration(0))
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.username", "operator")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.client_id", "signal_chart")
	v.SetDefault("mqtt.topic_prefix", "signal_chart")
	v.SetDefault("mqtt.qos", 0)
}

// FlagKeys maps command line flags to config keys.
var FlagKeys = map[string]string{
	"port":      "port",
	"log-level": "log_level",
	"db":        "db.path",
}

// Load reads path (or configs/config.yml when empty) on top of the defaults.
// A missing default file is not an error. Flags in fs override the file.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(DefaultConfigDir)
		v.SetConfigName(DefaultConfigName)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if fs != nil {
		for flag, key := range FlagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Range.BaseTime(); err != nil {
		errs = append(errs, err)
	}
	if c.Range.Days < 1 {
		errs = append(errs, fmt.Errorf("range.days must be >= 1, got %d", c.Range.Days))
	}
	if c.Chart.Segments < 0 {
		errs = append(errs, fmt.Errorf("chart.segments must be >= 0, got %d", c.Chart.Segments))
	}
	if c.Chart.DefaultEntityID < 0 {
		errs = append(errs, fmt.Errorf("chart.default_entity_id must be >= 0, got %d", c.Chart.DefaultEntityID))
	}
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		errs = append(errs, errors.New("source.base_url is required"))
	}
	if c.Auth.Enabled && (c.Auth.SigningKey == "" || c.Auth.PasswordHash == "" || c.Auth.Username == "") {
		errs = append(errs, errors.New("auth.username, auth.password_hash and auth.signing_key are required when auth is enabled"))
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	return errors.Join(errs...)
}
