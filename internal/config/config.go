package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the service, loaded from the
// environment (optionally seeded from a .env file during development).
type Config struct {
	DatabaseURL    string `env:"DATABASE_URL,required"`
	MigrationsPath string `env:"DATABASE_MIGRATIONS_PATH" envDefault:"file://migrations"`

	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	JWTSecret       string        `env:"JWT_SECRET,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// Covers is the S3-compatible object storage holding book cover
	// images. Endpoint left empty disables cover uploads.
	Covers struct {
		Endpoint        string `env:"COVERS_S3_ENDPOINT"`
		AccessKeyID     string `env:"COVERS_S3_ACCESS_KEY_ID"`
		SecretAccessKey string `env:"COVERS_S3_SECRET_ACCESS_KEY"`
		Bucket          string `env:"COVERS_S3_BUCKET" envDefault:"book-covers"`
		Region          string `env:"COVERS_S3_REGION" envDefault:"us-east-1"`
		UseSSL          bool   `env:"COVERS_S3_USE_SSL"`
	}

	// RabbitMQ carries borrowing lifecycle events. URL left empty
	// disables publishing.
	RabbitMQ struct {
		URL       string `env:"RABBITMQ_URL"`
		QueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"borrowing_events"`
	}
}

// LoadConfig loads the configuration from environment variables.
// A .env file in the working directory is loaded first if present.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration from environment: %w", err)
	}

	return &cfg, nil
}
