package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreDatabase = "database"
	StoreRedis    = "redis"
)

type DatabaseConfig struct {
	URL string `validate:"required,url"`
}

type ServerConfig struct {
	Environment string `validate:"oneof=development production test"`
	Port        string `validate:"required,numeric"`
}

type AdminConfig struct {
	Username string
	Password string
}

// Enabled reports whether the swagger basic-auth account is configured.
func (a *AdminConfig) Enabled() bool {
	return a.Username != "" && a.Password != ""
}

type TokenConfig struct {
	AccessTokenSecret      string `validate:"required,min=32"`
	RefreshTokenSecret     string `validate:"required,min=32"`
	AccessTokenExpiration  string `validate:"required"`
	RefreshTokenExpiration string `validate:"required"`

	// filled from the expiration strings once validated
	AccessTokenTTL  time.Duration `validate:"-"`
	RefreshTokenTTL time.Duration `validate:"-"`
}

type StoreConfig struct {
	RefreshTokenStore string `validate:"oneof=database redis"`
	RedisURL          string `validate:"required_if=RefreshTokenStore redis"`
}

type SecurityConfig struct {
	PasswordHasher     string  `validate:"oneof=bcrypt argon2id"`
	RateLimitPerSecond float64 `validate:"gt=0"`
}

type Config struct {
	Database *DatabaseConfig `validate:"required"`
	Server   *ServerConfig   `validate:"required"`
	Admin    *AdminConfig
	Token    *TokenConfig    `validate:"required"`
	Store    *StoreConfig    `validate:"required"`
	Security *SecurityConfig `validate:"required"`
}

// LoadConfig reads the optional dotenv file, then the process environment, and
// validates the result. Any returned error must abort startup.
func LoadConfig(dotenvPath string) (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
	}
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds and validates a Config from the given lookup function.
func ConfigFromEnv(getenv func(string) string) (*Config, error) {
	rate, err := strconv.ParseFloat(withDefault(getenv, "RATE_LIMIT_PER_SECOND", "5"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_SECOND: %w", err)
	}

	env := getenv("NODE_ENV")
	if env == "" {
		env = withDefault(getenv, "APP_ENV", "development")
	}

	cfg := &Config{
		Database: &DatabaseConfig{
			URL: getenv("DATABASE_URL"),
		},
		Server: &ServerConfig{
			Environment: env,
			Port:        withDefault(getenv, "PORT", "3000"),
		},
		Admin: &AdminConfig{
			Username: getenv("ADMIN_USERNAME"),
			Password: getenv("ADMIN_PASSWORD"),
		},
		Token: &TokenConfig{
			AccessTokenSecret:      getenv("JWT_ACCESS_TOKEN_SECRET"),
			RefreshTokenSecret:     getenv("JWT_REFRESH_TOKEN_SECRET"),
			AccessTokenExpiration:  withDefault(getenv, "JWT_ACCESS_TOKEN_EXPIRATION", "15m"),
			RefreshTokenExpiration: withDefault(getenv, "JWT_REFRESH_TOKEN_EXPIRATION", "7d"),
		},
		Store: &StoreConfig{
			RefreshTokenStore: withDefault(getenv, "REFRESH_TOKEN_STORE", StoreDatabase),
			RedisURL:          getenv("REDIS_URL"),
		},
		Security: &SecurityConfig{
			PasswordHasher:     withDefault(getenv, "PASSWORD_HASHER", "bcrypt"),
			RateLimitPerSecond: rate,
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Token.AccessTokenTTL, err = ParseExpiration(cfg.Token.AccessTokenExpiration); err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRATION: %w", err)
	}
	if cfg.Token.RefreshTokenTTL, err = ParseExpiration(cfg.Token.RefreshTokenExpiration); err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_TOKEN_EXPIRATION: %w", err)
	}
	return cfg, nil
}

func withDefault(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}
