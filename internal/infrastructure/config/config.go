package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Authz    AuthzConfig
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	MetricsPort    int // Port for the Prometheus metrics HTTP server
	CORSEnabled    bool
	AllowedOrigins []string
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// CacheConfig represents decision cache configuration
type CacheConfig struct {
	Enabled        bool
	MaxMemoryBytes int64 // Maximum memory usage in bytes (e.g., 33554432 = 32MB)
	TTLSeconds     int   // Time-to-live for cached decisions in seconds
	Metrics        bool
}

// AuthzConfig represents configuration of the service's own authorization
type AuthzConfig struct {
	// ProtectAdmin guards the administrative API with the Authorize
	// middleware (resource "admin"). Requires at least one administrator
	// principal to exist, so it is off by default.
	ProtectAdmin bool
}

// findProjectRoot finds the project root directory by looking for go.mod
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent directory")
		}
		dir = parent
	}
}

// InitConfig initializes viper configuration
// env: environment name (dev, test, prod)
func InitConfig(env string) error {
	if env == "" {
		env = "dev"
	}

	projectRoot, err := findProjectRoot()
	if err != nil {
		return fmt.Errorf("failed to find project root: %w", err)
	}

	viper.SetConfigName(fmt.Sprintf(".env.%s", env))
	viper.SetConfigType("env")
	viper.AddConfigPath(projectRoot)

	// Config file is optional; environment variables take precedence.
	_ = viper.ReadInConfig()
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("METRICS_PORT", 9090)
	viper.SetDefault("CORS_ENABLED", false)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "torii")
	viper.SetDefault("DB_NAME", "torii_dev")
	viper.SetDefault("DB_SSLMODE", "disable")

	viper.SetDefault("CACHE_ENABLED", true)
	viper.SetDefault("CACHE_MAX_MEMORY_BYTES", 32*1024*1024) // 32MB
	viper.SetDefault("CACHE_TTL_SECONDS", 60)
	viper.SetDefault("CACHE_METRICS", true)

	viper.SetDefault("AUTHZ_PROTECT_ADMIN", false)

	return nil
}

// Load loads configuration from viper
func Load() (*Config, error) {
	// DB_PASSWORD is required for security
	dbPassword := viper.GetString("DB_PASSWORD")
	if dbPassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required (set via environment variable or .env file)")
	}

	config := &Config{
		Server: ServerConfig{
			Host:           viper.GetString("SERVER_HOST"),
			Port:           viper.GetInt("SERVER_PORT"),
			MetricsPort:    viper.GetInt("METRICS_PORT"),
			CORSEnabled:    viper.GetBool("CORS_ENABLED"),
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetInt("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: dbPassword,
			Database: viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			Enabled:        viper.GetBool("CACHE_ENABLED"),
			MaxMemoryBytes: viper.GetInt64("CACHE_MAX_MEMORY_BYTES"),
			TTLSeconds:     viper.GetInt("CACHE_TTL_SECONDS"),
			Metrics:        viper.GetBool("CACHE_METRICS"),
		},
		Authz: AuthzConfig{
			ProtectAdmin: viper.GetBool("AUTHZ_PROTECT_ADMIN"),
		},
	}

	return config, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}
