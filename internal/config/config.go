package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DatabaseType string

const (
	MongoDB DatabaseType = "mongodb"
	SQLite  DatabaseType = "sqlite"
	MySQL   DatabaseType = "mysql"
)

type Config struct {
	Port string `env:"PORT" envDefault:"3008"`

	JwtKey      []byte
	JwtSecret   string        `env:"JWT_SECRET_KEY,required"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"taskmanager"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"10"`
	// Signs the browser session cookie; falls back to the JWT secret
	SessionSecret string `env:"SESSION_SECRET"`
	// Marks the session cookie Secure; enable behind TLS
	SessionSecure bool `env:"SESSION_SECURE" envDefault:"false"`

	DatabaseType DatabaseType `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabaseName string       `env:"DATABASE_NAME" envDefault:"taskmanager"`
	// MongoDB config
	MongoURI string `env:"MONGODB_URI"`
	// SQLite config
	SQLitePath string `env:"SQLITE_PATH"`
	// MySQL config, a go-sql-driver DSN
	MySQLDSN string `env:"MYSQL_DSN"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	RateLimitRPS      float64       `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigin string        `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv parses the process environment into a validated Config.
func FromEnv() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) finalize() error {
	if c.JwtSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is not set")
	}
	c.JwtKey = []byte(c.JwtSecret)

	if c.SessionSecret == "" {
		c.SessionSecret = c.JwtSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.DatabaseName == "" {
		return fmt.Errorf("DATABASE_NAME is not set")
	}

	// Configure based on database type
	switch c.DatabaseType {
	case MongoDB:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is not set")
		}
	case MySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("MYSQL_DSN is not set")
		}
	case SQLite:
		if c.SQLitePath == "" {
			// Default to a data directory in the current directory
			c.SQLitePath = filepath.Join("data", fmt.Sprintf("%s.db", c.DatabaseName))
		}
	default:
		return fmt.Errorf("unsupported DATABASE_TYPE: %s", c.DatabaseType)
	}

	return nil
}
