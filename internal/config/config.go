package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the server.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`

	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	JWTSecret     string        `mapstructure:"JWT_SECRET"`
	JWTExpiration time.Duration `mapstructure:"JWT_EXPIRATION"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	TelegramToken       string `mapstructure:"TELEGRAM_TOKEN"`
	ReportTime          string `mapstructure:"REPORT_TIME"`
	ReportIntervalHours string `mapstructure:"REPORT_INTERVAL_HOURS"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

var defaults = map[string]interface{}{
	"ENVIRONMENT":           "development",
	"SERVER_PORT":           "8080",
	"DATABASE_DRIVER":       "sqlite",
	"DATABASE_URL":          "asteritime.db",
	"JWT_SECRET":            "",
	"JWT_EXPIRATION":        "168h",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"TELEGRAM_TOKEN":        "",
	"REPORT_TIME":           "21:00",
	"REPORT_INTERVAL_HOURS": "",
	"LOG_LEVEL":             "info",
	"LOG_FILE":              "",
}

// Load reads configuration from environment variables, optionally seeded by
// a .env file in dir.
func Load(dir string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWTExpiration <= 0 {
		return cfg, fmt.Errorf("JWT_EXPIRATION must be positive")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ReportInterval is the period of the report job when REPORT_INTERVAL_HOURS
// is set; zero means the daily REPORT_TIME schedule applies.
func (c Config) ReportInterval() time.Duration {
	return parseInterval(strings.TrimSpace(c.ReportIntervalHours))
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}
