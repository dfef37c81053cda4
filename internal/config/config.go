package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/FeruzLatifov/hemis-back-sub004/pkg/config"
	"github.com/FeruzLatifov/hemis-back-sub004/pkg/database"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the identity service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8010"`

	// PostgreSQL primary (all writes, reads when no replica is configured)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"hemis"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"hemis_secret"`
	PostgresDB   string `env:"IDENTITY_DB_NAME" envDefault:"identity_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// PostgreSQL read replica, optional. When the host is empty all reads go
	// to the primary.
	ReplicaHost string `env:"POSTGRES_REPLICA_HOST" envDefault:""`
	ReplicaPort int    `env:"POSTGRES_REPLICA_PORT" envDefault:"5432"`

	// Redis (revocation denylist + shared cache tier)
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	AccessTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"12h"`
	RefreshTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	CompatTTL  time.Duration `env:"COMPAT_TOKEN_TTL" envDefault:"720h"`

	// Caching
	LocalCacheTTL      time.Duration `env:"LOCAL_CACHE_TTL" envDefault:"60s"`
	LocalCacheCapacity int           `env:"LOCAL_CACHE_CAPACITY" envDefault:"4096"`
	SharedCacheTTL     time.Duration `env:"SHARED_CACHE_TTL" envDefault:"10m"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load identity config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 || cfg.CompatTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if cfg.Environment != "development" {
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", cfg.Environment)
		}
		if len(cfg.JWTSecret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(cfg.JWTSecret))
		}
	}

	return cfg, nil
}

// PrimaryPostgres returns the pool configuration for the primary endpoint.
func (c *Config) PrimaryPostgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	return pg
}

// ReplicaPostgres returns the pool configuration for the read replica, or
// false when none is configured.
func (c *Config) ReplicaPostgres() (database.PostgresConfig, bool) {
	if c.ReplicaHost == "" {
		return database.PostgresConfig{}, false
	}
	pg := c.PrimaryPostgres()
	pg.Host = c.ReplicaHost
	pg.Port = c.ReplicaPort
	return pg, true
}

// Redis returns the Redis client configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPass,
		DB:       c.RedisDB,
	}
}
