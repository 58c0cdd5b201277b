// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gurkanbulca/clarity/internal/database"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Interpreter InterpreterConfig
	Redis       RedisConfig
	Scheduling  SchedulingConfig
}

type ServerConfig struct {
	GRPCPort         string
	HTTPPort         string
	Environment      string
	AutoMigrate      bool
	EnableReflection bool
	Debug            bool
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

type JWTConfig struct {
	AccessSecret        string
	AccessTokenDuration time.Duration
	Issuer              string
}

type InterpreterConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// RedisConfig is optional; an empty URL disables command idempotency.
type RedisConfig struct {
	URL            string
	IdempotencyTTL time.Duration
}

type SchedulingConfig struct {
	DefaultTimezone     string
	DefaultTaskDuration int
	SearchHorizonDays   int
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			GRPCPort:         getEnv("GRPC_PORT", "50051"),
			HTTPPort:         getEnv("HTTP_PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			AutoMigrate:      getEnvAsBool("AUTO_MIGRATE", true),
			EnableReflection: getEnvAsBool("ENABLE_REFLECTION", false),
			Debug:            getEnvAsBool("DEBUG", false),
		},
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			DBName:     getEnv("DB_NAME", "clarity"),
			SSLMode:    getEnv("DB_SSL_MODE", "disable"),
			SQLitePath: getEnv("SQLITE_PATH", "clarity.db"),
		},
		JWT: JWTConfig{
			AccessSecret:        getEnv("JWT_ACCESS_SECRET", getEnv("JWT_SECRET", "dev-access-secret-change-in-production")),
			AccessTokenDuration: getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", 15*time.Minute),
			Issuer:              getEnv("JWT_ISSUER", "clarity"),
		},
		Interpreter: InterpreterConfig{
			APIKey:   getEnv("GEMINI_API_KEY", ""),
			Model:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Endpoint: getEnv("GEMINI_ENDPOINT", ""),
			Timeout:  getEnvAsDuration("INTERPRETER_TIMEOUT", 15*time.Second),
		},
		Redis: RedisConfig{
			URL:            getEnv("REDIS_URL", ""),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Scheduling: SchedulingConfig{
			DefaultTimezone:     getEnv("DEFAULT_TIMEZONE", "Asia/Kolkata"),
			DefaultTaskDuration: getEnvAsInt("DEFAULT_TASK_DURATION", 60),
			SearchHorizonDays:   getEnvAsInt("SLOT_SEARCH_HORIZON_DAYS", 14),
		},
	}, nil
}

// ValidateConfig rejects settings the server cannot start with.
func (c *Config) ValidateConfig() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for postgres"))
		}
	case "sqlite3":
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite3"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver))
	}

	if c.IsProduction() && strings.HasPrefix(c.JWT.AccessSecret, "dev-") {
		errs = append(errs, errors.New("JWT_ACCESS_SECRET must be set in production"))
	}
	if c.JWT.AccessTokenDuration <= 0 {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN_DURATION must be positive"))
	}
	if c.Interpreter.Timeout <= 0 {
		errs = append(errs, errors.New("INTERPRETER_TIMEOUT must be positive"))
	}
	if c.Redis.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}
	if _, err := time.LoadLocation(c.Scheduling.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_TIMEZONE: %w", err))
	}
	if c.Scheduling.DefaultTaskDuration <= 0 {
		errs = append(errs, errors.New("DEFAULT_TASK_DURATION must be positive"))
	}
	if c.Scheduling.SearchHorizonDays <= 0 {
		errs = append(errs, errors.New("SLOT_SEARCH_HORIZON_DAYS must be positive"))
	}

	return errors.Join(errs...)
}

// ToDatabaseConfig converts to the database package's connection settings.
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Driver:     c.Database.Driver,
		Host:       c.Database.Host,
		Port:       c.Database.Port,
		User:       c.Database.User,
		Password:   c.Database.Password,
		DBName:     c.Database.DBName,
		SSLMode:    c.Database.SSLMode,
		SQLitePath: c.Database.SQLitePath,
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Try parsing as duration string (e.g., "15m", "24h")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}
