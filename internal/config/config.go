package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every externally supplied setting of the service.
type Config struct {
	AppPort   string
	JWTSecret string
	TokenTTL  time.Duration

	DBDriver    string
	DatabaseDSN string

	CatalogURL     string
	CatalogAPIKey  string
	CatalogTimeout time.Duration

	RabbitMQURL      string
	RabbitMQExchange string

	CORSOrigins     []string
	SearchRateLimit int

	LogLevel  string
	LogFormat string
}

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Load reads configuration from the environment and, when CONFIG_FILE is set,
// from that file.
func Load() (Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration using the given viper instance. Tests use it to
// inject values without touching the process environment.
func LoadFrom(v *viper.Viper) (Config, error) {
	v.SetDefault("APP_PORT", ":5000")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("GOOGLE_BOOKS_URL", "https://www.googleapis.com/books/v1/volumes")
	v.SetDefault("CATALOG_TIMEOUT", "10s")
	v.SetDefault("RABBITMQ_EXCHANGE", "booknest.events")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("SEARCH_RATE_LIMIT", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		AppPort:          v.GetString("APP_PORT"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenTTL:         v.GetDuration("TOKEN_TTL"),
		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		CatalogURL:       strings.TrimRight(v.GetString("GOOGLE_BOOKS_URL"), "/"),
		CatalogAPIKey:    v.GetString("GOOGLE_BOOKS_API_KEY"),
		CatalogTimeout:   v.GetDuration("CATALOG_TIMEOUT"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
		CORSOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		SearchRateLimit:  v.GetInt("SEARCH_RATE_LIMIT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot safely start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN must be set for driver %q", c.DBDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return nil
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
