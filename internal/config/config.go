// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret string `mapstructure:"JWT_SECRET"`
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"APP_ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBPath     string `mapstructure:"DB_PATH"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	DBSchemaMode                  string `mapstructure:"DB_SCHEMA_MODE"`
	DBAutoMigrateAllowDestructive bool   `mapstructure:"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes      int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	LikeRateLimitPerMinute int `mapstructure:"LIKE_RATE_LIMIT_PER_MINUTE"`
	PostRateLimitPerMinute int `mapstructure:"POST_RATE_LIMIT_PER_MINUTE"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

var defaults = map[string]any{
	"PORT":       "8080",
	"APP_ENV":    "development",
	"LOG_LEVEL":  "info",
	"JWT_SECRET": defaultJWTSecret,

	"DB_DRIVER":                        "postgres",
	"DB_PATH":                          "leconn.db",
	"DB_HOST":                          "localhost",
	"DB_PORT":                          "5432",
	"DB_USER":                          "leconn",
	"DB_PASSWORD":                      "password",
	"DB_NAME":                          "leconn",
	"DB_SSLMODE":                       "disable",
	"DB_SCHEMA_MODE":                   "hybrid",
	"DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE": false,
	"DB_MAX_OPEN_CONNS":                25,
	"DB_MAX_IDLE_CONNS":                5,
	"DB_CONN_MAX_LIFETIME_MINUTES":     5,

	"REDIS_URL":       "localhost:6379",
	"ALLOWED_ORIGINS": "http://localhost:5173,http://localhost:3000",

	"LIKE_RATE_LIMIT_PER_MINUTE": 120,
	"POST_RATE_LIMIT_PER_MINUTE": 10,

	"TRACING_ENABLED":      false,
	"TRACING_EXPORTER":     "stdout",
	"OTLP_ENDPOINT":        "localhost:4318",
	"TRACING_SAMPLE_RATIO": 1.0,
}

// LoadConfig layers, lowest first: defaults, config.yml, config.<env>.yml,
// a local .env file and the process environment. The env-specific file is
// required outside development and test.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")
	for _, dir := range []string{".", "..", "../.."} {
		v.AddConfigPath(dir)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config.yml: %w", err)
		}
	}

	if env := strings.ToLower(v.GetString("APP_ENV")); env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config.%s.yml: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	for _, field := range []*string{&c.Env, &c.DBDriver, &c.DBSSLMode, &c.DBSchemaMode, &c.TracingExporter} {
		*field = strings.ToLower(strings.TrimSpace(*field))
	}
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var problems []error
	check := func(bad bool, msg string) {
		if bad {
			problems = append(problems, errors.New(msg))
		}
	}

	check(c.Port == "", "PORT is required")
	check(c.JWTSecret == "", "JWT_SECRET is required")
	check(c.DBDriver != "postgres" && c.DBDriver != "sqlite", fmt.Sprintf("DB_DRIVER %q is not postgres or sqlite", c.DBDriver))
	check(c.DBDriver == "sqlite" && c.DBPath == "", "DB_PATH is required for sqlite")
	check(c.DBMaxOpenConns <= 0, "DB_MAX_OPEN_CONNS must be positive")
	check(c.DBMaxIdleConns < 0, "DB_MAX_IDLE_CONNS must not be negative")
	check(c.DBConnMaxLifetimeMinutes <= 0, "DB_CONN_MAX_LIFETIME_MINUTES must be positive")
	check(c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1, "TRACING_SAMPLE_RATIO must be within [0, 1]")

	if c.IsProduction() {
		check(c.JWTSecret == defaultJWTSecret || len(c.JWTSecret) < 32, "production needs a JWT_SECRET of 32+ characters")
		check(c.DBDriver != "postgres", "production needs DB_DRIVER=postgres")
		check(c.DBPassword == "" || c.DBPassword == "password", "production needs a real DB_PASSWORD")
		check(c.DBSSLMode == "" || c.DBSSLMode == "disable", "production needs DB_SSLMODE with TLS")
		if c.AllowedOrigins == "*" {
			log.Println("config: ALLOWED_ORIGINS=* in production")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("config: JWT_SECRET is shorter than 32 characters")
	}

	return errors.Join(problems...)
}
