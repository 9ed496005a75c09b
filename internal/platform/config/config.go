package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr                string        `env:"APP_ADDR" envDefault:":8080"`
	Environment         string        `env:"APP_ENV" envDefault:"development"`
	Timezone            string        `env:"APP_TIMEZONE" envDefault:"UTC"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	JWTSecret           string        `env:"JWT_SECRET"`
	JWTTTL              time.Duration `env:"JWT_TTL" envDefault:"1h"`
	DataEncryptionKey   string        `env:"DATA_ENCRYPTION_KEY"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	SeedAdminName       string        `env:"SEED_ADMIN_NAME" envDefault:"Administrator"`
	SeedAdminEmail      string        `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword   string        `env:"SEED_ADMIN_PASSWORD"`
	RunMigrations       bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed             bool          `env:"RUN_SEED" envDefault:"true"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	MaxBodyBytes        int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	RateLimitPerMinute  int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	RedisAddr           string        `env:"REDIS_ADDR"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`
	RabbitMQURL         string        `env:"RABBITMQ_URL"`
	RabbitMQQueue       string        `env:"RABBITMQ_QUEUE" envDefault:"email_queue"`
	PublishTimeout      time.Duration `env:"RABBITMQ_PUBLISH_TIMEOUT" envDefault:"10s"`
	EmailEnabled        bool          `env:"EMAIL_ENABLED" envDefault:"false"`
	EmailFrom           string        `env:"EMAIL_FROM" envDefault:"no-reply@example.com"`
	SMTPHost            string        `env:"SMTP_HOST"`
	SMTPPort            int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser            string        `env:"SMTP_USER"`
	SMTPPassword        string        `env:"SMTP_PASSWORD"`
	SMTPUseTLS          bool          `env:"SMTP_USE_TLS" envDefault:"true"`
	NotifyOnEvaluation  bool          `env:"NOTIFY_ON_EVALUATION" envDefault:"false"`
	AllowSelfEvaluation bool          `env:"EVAL_ALLOW_SELF" envDefault:"true"`
	StrictAnswerKeys    bool          `env:"EVAL_STRICT_ANSWER_KEYS" envDefault:"false"`
	ShutdownTimeout     time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	MetricsEnabled      bool          `env:"METRICS_ENABLED" envDefault:"true"`
	AuditWriteTimeout   time.Duration `env:"AUDIT_WRITE_TIMEOUT" envDefault:"5s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return Config{}, aggErr.Errors[0]
		}
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
