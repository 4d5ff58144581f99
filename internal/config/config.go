// Package config loads gateway and client configuration from an optional
// YAML file merged with environment variables. Environment variables use
// the IDENTITY prefix, so IDENTITY_AUTHORITY_URL overrides authority.url.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration.
type Config struct {
	Authority AuthorityConfig `mapstructure:"authority"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// AuthorityConfig points at the badge authority.
type AuthorityConfig struct {
	URL string `mapstructure:"url"`

	// APIKey set here wins; an empty value falls back to the
	// IDENTITY_SERVICE_API_KEY environment variable.
	APIKey string `mapstructure:"api_key"`

	CallTimeout time.Duration `mapstructure:"call_timeout"`
}

// GatewayConfig describes the gated reverse proxy.
type GatewayConfig struct {
	ListenAddr  string        `mapstructure:"listen_addr"`
	TargetURL   string        `mapstructure:"target_url"`
	CardPath    string        `mapstructure:"card_path"`
	PublicPaths []string      `mapstructure:"public_paths"`
	ToolName    string        `mapstructure:"tool_name"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// LoggerConfig tunes the zap logger.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Load reads config.yaml from the working directory or ./configs, applies
// defaults, and lets IDENTITY_* environment variables override everything.
// A missing file is fine; the environment alone is a valid configuration.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the named file when path is set.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("IDENTITY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key gets a default so environment-only values survive Unmarshal.
	v.SetDefault("authority.url", "")
	v.SetDefault("authority.api_key", "")
	v.SetDefault("authority.call_timeout", 30*time.Second)
	v.SetDefault("gateway.listen_addr", ":8080")
	v.SetDefault("gateway.target_url", "")
	v.SetDefault("gateway.card_path", "")
	v.SetDefault("gateway.public_paths", []string{})
	v.SetDefault("gateway.tool_name", "")
	v.SetDefault("gateway.read_timeout", 10*time.Second)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
