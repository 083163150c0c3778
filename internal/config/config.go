// Package config loads runtime settings from .env, a config file and STOREFRONT_* variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "storefront-dev-secret-change-me"

type Config struct {
	HTTPAddr          string
	DBDriver          string
	DatabaseURL       string
	JWTSecret         string
	JWTTTL            time.Duration
	RedisAddr         string
	KafkaBrokers      []string
	LogLevel          string
	GinMode           string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	ShutdownTimeout   time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("database_url", "storefront.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", "168h")
	v.SetDefault("redis_addr", "")
	v.SetDefault("kafka_brokers", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", "5m")
	v.SetDefault("shutdown_timeout", "5s")
}

// Load reads settings. file is optional; an empty path skips it. A missing
// .env file is not an error.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{
		HTTPAddr:          v.GetString("http_addr"),
		DBDriver:          strings.ToLower(v.GetString("db_driver")),
		DatabaseURL:       v.GetString("database_url"),
		JWTSecret:         v.GetString("jwt_secret"),
		JWTTTL:            v.GetDuration("jwt_ttl"),
		RedisAddr:         v.GetString("redis_addr"),
		KafkaBrokers:      splitList(v.GetString("kafka_brokers")),
		LogLevel:          v.GetString("log_level"),
		GinMode:           v.GetString("gin_mode"),
		DBMaxOpenConns:    v.GetInt("db_max_open_conns"),
		DBMaxIdleConns:    v.GetInt("db_max_idle_conns"),
		DBConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		ShutdownTimeout:   v.GetDuration("shutdown_timeout"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}
	if c.JWTSecret == "" {
		if c.DBDriver == "mysql" || c.DBDriver == "postgres" {
			return fmt.Errorf("jwt_secret is required for db_driver %s", c.DBDriver)
		}
		slog.Warn("jwt_secret not set, using the development secret")
		c.JWTSecret = devJWTSecret
	}
	return nil
}

// SlogLevel maps the configured name to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
