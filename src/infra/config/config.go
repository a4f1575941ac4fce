// Package config handles application configuration via environment variables.
// It uses kelseyhightower/envconfig for parsing and go-playground/validator
// for sanity checks on the parsed values.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the envconfig prefix. Every variable may also be given without it
// (DB_HOST as well as APP_DB_HOST).
const Prefix = "APP"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Migration MigrationConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP server port (default: 3000)
	Port int `envconfig:"PORT" default:"3000" validate:"min=1,max=65535"`

	// Host is the HTTP server host (default: localhost)
	Host string `envconfig:"HOST" default:"localhost" validate:"required"`

	// Env selects production behaviour such as template caching (default: development)
	Env string `envconfig:"ENV" default:"development"`

	// PublicDir holds static files served before the page fallback (default: public)
	PublicDir string `envconfig:"PUBLIC_DIR" default:"public"`

	// TemplatePath is the HTML page template (default: web/index.html)
	TemplatePath string `envconfig:"TEMPLATE_PATH" default:"web/index.html" validate:"required"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
// It doubles as the per-call connection config: db.Manager copies it and
// applies caller overrides before opening the pool.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost" validate:"required"`
	Port     int    `envconfig:"DB_PORT" default:"5432" validate:"min=1,max=65535"`
	User     string `envconfig:"DB_USER" default:"root" validate:"required"`
	Password string `envconfig:"DB_PASS" default:"secret"`

	// Name is the target database, created on first connect when missing.
	Name string `envconfig:"DB_NAME" default:"auto" validate:"required,max=63"`

	// MaxConns caps the pool size (default: 10)
	MaxConns int `envconfig:"DB_CONNECTION_LIMIT" default:"10" validate:"min=1"`

	SSLMode string `envconfig:"DB_SSLMODE" default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`

	// AdminName is the maintenance database used to issue CREATE DATABASE.
	AdminName string `envconfig:"DB_ADMIN_NAME" default:"postgres" validate:"required"`

	// Collation is applied as LC_COLLATE and LC_CTYPE of a created database.
	Collation string `envconfig:"DB_COLLATION" default:"C.UTF-8" validate:"required"`
}

// MigrationConfig locates the migration catalog.
type MigrationConfig struct {
	Dir  string `envconfig:"MIGRATIONS_DIR" default:"db"`
	Glob string `envconfig:"MIGRATIONS_GLOB" default:"*.sql" validate:"required"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`

	// Format is the log format: json, text, plain (default: plain)
	Format string `envconfig:"LOG_FORMAT" default:"plain"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"webscaffold" validate:"required"`
}

// DSN returns the connection URL for the configured database.
func (c DatabaseConfig) DSN() string {
	return c.dsn(c.Name)
}

// AdminDSN returns the connection URL for the maintenance database.
func (c DatabaseConfig) AdminDSN() string {
	return c.dsn(c.AdminName)
}

func (c DatabaseConfig) dsn(database string) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strings.TrimPrefix(database, "/"),
		User:   url.UserPassword(c.User, c.Password),
	}
	if c.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Validate checks the connection settings.
func (c DatabaseConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid database config: %w", err)
	}
	return nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Production reports whether the server runs in production mode.
func (c *ServerConfig) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from environment variables.
// It returns an error if variables are malformed or fail validation.
func Load() (*Config, error) {
	var cfg Config

	// Sections are processed one by one so that the variable names stay flat
	// (APP_DB_HOST rather than APP_DATABASE_DB_HOST).
	sections := []struct {
		name string
		dst  any
	}{
		{"server", &cfg.Server},
		{"database", &cfg.Database},
		{"migration", &cfg.Migration},
		{"log", &cfg.Log},
		{"metrics", &cfg.Metrics},
	}
	for _, s := range sections {
		if err := envconfig.Process(Prefix, s.dst); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
