package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"

	"github.com/Cloutiere/mermaid/pkg/diagram"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"3002"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Database DatabaseConfig

	Diagram DiagramConfig

	Otel OtelConfig

	// Comma separated list of allowed CORS origins
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"narrative"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"narrative"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
	AutoMigrate  bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// DiagramConfig holds limits for diagram code handling
type DiagramConfig struct {
	// Largest diagram source accepted by the sync and import endpoints
	MaxSourceBytes int `env:"DIAGRAM_MAX_SOURCE_BYTES" envDefault:"1048576"`

	// Direction given to graphs created without one
	DefaultDirection string `env:"DIAGRAM_DEFAULT_DIRECTION" envDefault:"TD"`
}

// BodyLimit renders MaxSourceBytes in the form echo's BodyLimit middleware expects.
func (d *DiagramConfig) BodyLimit() string {
	if d.MaxSourceBytes <= 0 {
		return "1M"
	}
	return fmt.Sprintf("%dB", d.MaxSourceBytes)
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	dir := strings.ToUpper(c.Diagram.DefaultDirection)
	for _, d := range diagram.Directions {
		if d == dir {
			c.Diagram.DefaultDirection = dir
			return nil
		}
	}
	return fmt.Errorf("DIAGRAM_DEFAULT_DIRECTION %q is not one of %s",
		c.Diagram.DefaultDirection, strings.Join(diagram.Directions, ", "))
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("db_host", cfg.Database.Host),
		slog.String("default_direction", cfg.Diagram.DefaultDirection),
	)

	return cfg, nil
}
