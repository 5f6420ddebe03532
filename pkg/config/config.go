package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvProduction = "production"

// Config holds application configuration loaded from environment variables or config files.
type Config struct {
	AppEnv          string        `mapstructure:"APP_ENV" validate:"required,oneof=development staging production test"`
	Host            string        `mapstructure:"HOST" validate:"required"`
	Port            int           `mapstructure:"PORT" validate:"required,gt=0,lt=65536"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" validate:"required"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT" validate:"required"`

	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"required,oneof=json console"`

	DatabaseURL       string        `mapstructure:"DATABASE_URL" validate:"required,url|uri"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS" validate:"gte=1,lte=1000"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS" validate:"gte=0,lte=1000"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`

	DashboardOrigin string `mapstructure:"DASHBOARD_ORIGIN" validate:"omitempty,url"`
	ClientOrigin    string `mapstructure:"CLIENT_ORIGIN" validate:"omitempty,url"`

	APIPrefix         string `mapstructure:"API_PREFIX" validate:"required,alphanum"`
	APIDefaultVersion string `mapstructure:"API_DEFAULT_VERSION" validate:"required,numeric"`

	RateLimitTTL time.Duration `mapstructure:"RATE_LIMIT_TTL" validate:"required"`
	RateLimitMax int           `mapstructure:"RATE_LIMIT_MAX" validate:"gte=1"`

	RedisAddr     string `mapstructure:"REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB" validate:"gte=0,lte=15"`
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool { return c.AppEnv == EnvProduction }

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// AllowedOrigins lists the configured browser clients.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range []string{c.DashboardOrigin, c.ClientOrigin} {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var keys = []string{
	"HOST",
	"PORT",
	"SHUTDOWN_TIMEOUT",
	"REQUEST_TIMEOUT",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"DATABASE_URL",
	"DB_MAX_OPEN_CONNS",
	"DB_MAX_IDLE_CONNS",
	"DB_CONN_MAX_LIFETIME",
	"DASHBOARD_ORIGIN",
	"CLIENT_ORIGIN",
	"API_PREFIX",
	"API_DEFAULT_VERSION",
	"RATE_LIMIT_TTL",
	"RATE_LIMIT_MAX",
	"REDIS_ADDR",
	"REDIS_PASSWORD",
	"REDIS_DB",
}

// Load initializes configuration using Viper. It loads from .env if present,
// applies defaults, binds env vars, and validates the result.
func Load() (*Config, error) {
	// Load .env if present (non-fatal)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 8080)
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("API_PREFIX", "api")
	v.SetDefault("API_DEFAULT_VERSION", "1")
	v.SetDefault("RATE_LIMIT_TTL", "15m")
	v.SetDefault("RATE_LIMIT_MAX", 10000)
	v.SetDefault("REDIS_DB", 0)

	// Optional config file
	_ = v.ReadInConfig()

	// NODE_ENV is accepted for deployments that still export it.
	_ = v.BindEnv("APP_ENV", "APP_ENV", "NODE_ENV")
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IsProduction() && len(c.AllowedOrigins()) == 0 {
		return nil, errors.New("invalid configuration: DASHBOARD_ORIGIN or CLIENT_ORIGIN is required in production")
	}

	return &c, nil
}

// MustLoad loads configuration or exits the process on failure.
func MustLoad() *Config {
	c, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	return c
}
