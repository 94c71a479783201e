// Package config loads server configuration with viper.
//
// Sources, lowest to highest precedence: built-in defaults, an optional YAML
// file (joinagame.yaml in "." or "./config", or an explicit path), and
// environment variables prefixed JOINAGAME_ with dots replaced by
// underscores, e.g. JOINAGAME_STORE_DRIVER=sqlite.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
	Auth   AuthConfig   `mapstructure:"auth"`
	CORS   CORSConfig   `mapstructure:"cors"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	StaticDir       string        `mapstructure:"static_dir"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig controls player tokens. An empty JWTSecret disables them.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TokensEnabled reports whether player tokens are switched on.
func (c *Config) TokensEnabled() bool {
	return c.Auth.JWTSecret != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("store.driver", DriverJSON)
	v.SetDefault("store.path", "data/data.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "tint")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 720*time.Hour)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
}

// Load reads the configuration. With an empty path a missing config file is
// fine; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("JOINAGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("joinagame")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("config: server.shutdown_timeout must be positive")
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverJSON, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown store.driver %q (want %q or %q)", c.Store.Driver, DriverJSON, DriverSQLite)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return errors.New("config: store.path is required")
	}

	switch strings.ToLower(c.Log.Format) {
	case "tint", "json", "text":
	default:
		return fmt.Errorf("config: unknown log.format %q", c.Log.Format)
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("config: auth.token_ttl must be positive")
	}

	return nil
}
