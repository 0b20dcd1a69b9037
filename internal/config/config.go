// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	HTTPPort    string
	Environment string
}

type DatabaseConfig struct {
	// Driver is "sqlite3" or "postgres".
	Driver string

	// Path is the sqlite database file.
	Path string

	// Postgres connection fields, ignored for sqlite.
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPPort:    getEnv("HTTP_PORT", "5001"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite3"),
			Path:     getEnv("DB_PATH", "kanban.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "kanban"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
	}

	if cfg.Database.Driver != "sqlite3" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// DSN builds the driver-specific connection string.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite3" {
		// _fk=1 turns on foreign key enforcement.
		return fmt.Sprintf("file:%s?_fk=1", d.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
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
