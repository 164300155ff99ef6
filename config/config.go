package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverMySQL    = "mysql"
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	Storage           StorageConfig
	MySQL             SQLConfig
	Postgres          SQLConfig
	Log               LogConfig
	Services          ServicesConfig
	InternalEndpoints InternalEndpointsConfig
	Validation        ValidationConfig
	RateLimit         RateLimitConfig
}

type AppConfig struct {
	ServiceName string
}

type ServerConfig struct {
	Host string
	Port string
}

type StorageConfig struct {
	Driver string
}

type SQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// ServicesConfig holds the peers reached over the pattern transport.
type ServicesConfig struct {
	UserGRPCAddr    string
	CatalogGRPCAddr string
	AuthGRPCAddr    string
}

// InternalEndpointsConfig enables the fleet internal access gate when
// AuthGRPCAddr is set.
type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type ValidationConfig struct {
	CheckTimeout time.Duration
	Parallel     bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverMySQL))
	cfg := &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "athlete-subscriptions-service"),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		Storage: StorageConfig{Driver: driver},
		MySQL: SQLConfig{
			DSN:             os.Getenv("MYSQL_DSN"),
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Postgres: SQLConfig{
			DSN:             os.Getenv("POSTGRES_DSN"),
			MaxOpenConns:    getIntEnv("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("POSTGRES_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Services: ServicesConfig{
			UserGRPCAddr:    getEnv("USER_SERVICE_GRPC_ADDR", "localhost:9091"),
			CatalogGRPCAddr: getEnv("CATALOG_SERVICE_GRPC_ADDR", "localhost:9092"),
			AuthGRPCAddr:    getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9093"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("INTERNAL_AUTH_GRPC_ADDR", ""),
		},
		Validation: ValidationConfig{
			CheckTimeout: getSecondsEnv("CHECK_TIMEOUT_SECONDS", 5*time.Second),
			Parallel:     getBoolEnv("VALIDATION_PARALLEL", false),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloatEnv("RATE_LIMIT_RPS", 0),
			Burst:             getIntEnv("RATE_LIMIT_BURST", 0),
		},
	}

	switch driver {
	case StorageDriverMySQL:
		if cfg.MySQL.DSN == "" {
			return nil, fmt.Errorf("MYSQL_DSN environment variable is required when STORAGE_DRIVER=%s", driver)
		}
	case StorageDriverPostgres:
		if cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN environment variable is required when STORAGE_DRIVER=%s", driver)
		}
	case StorageDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}

	return cfg, nil
}

// SQL returns the connection settings of the configured SQL driver.
func (c *Config) SQL() SQLConfig {
	if c.Storage.Driver == StorageDriverPostgres {
		return c.Postgres
	}
	return c.MySQL
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
