// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Store    StoreConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds PostgreSQL connection settings.
// DSN, when set, takes precedence over the individual fields.
type DatabaseConfig struct {
	DSNOverride string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	Debug       bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev            bool
	Migrations     bool
	Seed           bool
	SessionSecret  string
	MetricsEnabled bool
}

// Category is one entry of the product category filter.
type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// StoreConfig scopes the service to one store.
type StoreConfig struct {
	ID              uint
	Categories      []Category
	CleaningOnClose bool
}

// DefaultCategories is the category filter used when CATEGORIES is unset.
var DefaultCategories = []Category{
	{ID: "acai", Label: "Açaí"},
	{ID: "bebidas", Label: "Bebidas"},
	{ID: "complementos", Label: "Complementos"},
	{ID: "sobremesas", Label: "Sobremesas"},
	{ID: "sorvetes", Label: "Sorvetes"},
	{ID: "outros", Label: "Outros"},
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			DSNOverride: getEnv("DATABASE_DSN", ""),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "tablesales"),
			Password:    getEnv("DB_PASSWORD", "tablesales"),
			DBName:      getEnv("DB_NAME", "tablesales"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			Debug:       getEnvBool("DB_DEBUG", false),
		},
		App: AppConfig{
			Dev:            getEnvBool("DEV", true),
			Migrations:     getEnvBool("MIGRATIONS", false),
			Seed:           getEnvBool("DB_SEED", false),
			SessionSecret:  getEnv("SESSION_SECRET", "dev-secret-change-me"),
			MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		},
		Store: StoreConfig{
			ID:              uint(getEnvInt("STORE_ID", 1)),
			Categories:      parseCategories(os.Getenv("CATEGORIES")),
			CleaningOnClose: getEnvBool("TABLE_CLEANING_ON_CLOSE", false),
		},
	}
}

// parseCategories reads "id:Label,id2:Label 2". An entry without a label
// uses its id. An empty value yields DefaultCategories.
func parseCategories(raw string) []Category {
	var out []Category
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, label, found := strings.Cut(part, ":")
		id = strings.TrimSpace(id)
		label = strings.TrimSpace(label)
		if !found || label == "" {
			label = id
		}
		out = append(out, Category{ID: id, Label: label})
	}
	if len(out) == 0 {
		return append([]Category(nil), DefaultCategories...)
	}
	return out
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
