package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Media    MediaConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            int           `env:"SERVER_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AllowedOrigins  []string      `env:"SERVER_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// StorageConfig selects the key-value backend holding the collections.
// Driver is one of memory, sqlite, postgres, redis.
type StorageConfig struct {
	Driver     string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	Prefix     string `env:"STORAGE_PREFIX" envDefault:"brioso"`
	SQLitePath string `env:"STORAGE_SQLITE_PATH" envDefault:"brioso.db"`
	Seed       bool   `env:"STORAGE_SEED" envDefault:"true"`

	// SweepInterval is how often expired session slots are purged from the
	// SQL backends. Zero disables the sweeper.
	SweepInterval time.Duration `env:"STORAGE_SWEEP_INTERVAL" envDefault:"1h"`
}

type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"brioso"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// RabbitMQConfig enables sale events when URL is set.
type RabbitMQConfig struct {
	URL string `env:"RABBITMQ_URL" envDefault:""`
}

func (c RabbitMQConfig) Enabled() bool { return c.URL != "" }

type JWTConfig struct {
	Secret     string        `env:"JWT_SECRET" envDefault:"super-secret-key"`
	Expiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`
}

type AuthConfig struct {
	BcryptCost int `env:"AUTH_BCRYPT_COST" envDefault:"10"`
}

// MediaConfig enables image offload to MinIO when Endpoint is set.
type MediaConfig struct {
	Endpoint      string `env:"MINIO_ENDPOINT" envDefault:""`
	AccessKey     string `env:"MINIO_ACCESS_KEY" envDefault:""`
	SecretKey     string `env:"MINIO_SECRET_KEY" envDefault:""`
	Bucket        string `env:"MINIO_BUCKET" envDefault:"brioso-images"`
	UseSSL        bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	PublicBaseURL string `env:"MINIO_PUBLIC_BASE_URL" envDefault:""`
}

func (c MediaConfig) Enabled() bool { return c.Endpoint != "" }

type LogConfig struct {
	Level string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.Storage.Driver {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	return cfg, nil
}
