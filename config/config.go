package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DBURL             string   `mapstructure:"DB_URL"`
	RedisAddress      string   `mapstructure:"REDIS_URL"`
	SymmetricKey      string   `mapstructure:"SYMMETRIC_KEY"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS      float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst    int      `mapstructure:"RATE_LIMIT_BURST"`
	StorageDriver     string   `mapstructure:"STORAGE_DRIVER"`
	S3Bucket          string   `mapstructure:"S3_BUCKET"`
	S3Region          string   `mapstructure:"S3_REGION"`
	S3Endpoint        string   `mapstructure:"S3_ENDPOINT"`
	SMTPHost          string   `mapstructure:"SMTP_HOST"`
	SMTPPort          int      `mapstructure:"SMTP_PORT"`
	SMTPUser          string   `mapstructure:"SMTP_USER"`
	SMTPPass          string   `mapstructure:"SMTP_PASS"`
	MailFrom          string   `mapstructure:"MAIL_FROM"`
	WorkerConcurrency int      `mapstructure:"WORKER_CONCURRENCY"`
}

var envKeys = []string{
	"PORT", "ENV", "DB_URL", "REDIS_URL", "SYMMETRIC_KEY", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "STORAGE_DRIVER", "S3_BUCKET", "S3_REGION",
	"S3_ENDPOINT", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM",
	"WORKER_CONCURRENCY",
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8930")
	v.SetDefault("ENV", "production")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 15)
	v.SetDefault("RATE_LIMIT_BURST", 30)
	v.SetDefault("STORAGE_DRIVER", "s3")
	v.SetDefault("S3_REGION", "af-south-1")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("WORKER_CONCURRENCY", 5)

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// A missing .env is fine, the environment alone is enough.
	_ = v.ReadInConfig()

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUser
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *AppConfig) Validate() error {
	if c.DBURL == "" {
		return errors.New("missing DB_URL environment variable")
	}
	if c.RedisAddress == "" {
		return errors.New("missing REDIS_URL environment variable")
	}
	if len(c.SymmetricKey) != 32 {
		return fmt.Errorf("SYMMETRIC_KEY must be 32 bytes long, got %d", len(c.SymmetricKey))
	}
	switch c.StorageDriver {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("missing S3_BUCKET environment variable")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	return nil
}

// IsDev reports whether the server runs in development mode.
func (c *AppConfig) IsDev() bool {
	return c.Env == "development"
}

// GetSymmetricKey returns the PASETO key as bytes
func (c *AppConfig) GetSymmetricKey() []byte {
	return []byte(c.SymmetricKey)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
