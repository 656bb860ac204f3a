// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the GoChat Rooms service.
package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	yaml "gopkg.in/yaml.v3"

	"github.com/Tyrowin/gochat-rooms/internal/identity"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `yaml:"burst"           env:"GOCHAT_RATE_LIMIT_BURST"`
	RefillInterval time.Duration `yaml:"refill_interval" env:"GOCHAT_RATE_LIMIT_REFILL_INTERVAL"`
}

// IdentityConfig selects how connections obtain a display name.
type IdentityConfig struct {
	Mode        string        `yaml:"mode"         env:"GOCHAT_IDENTITY_MODE"`
	TokenSecret string        `yaml:"token_secret" env:"GOCHAT_TOKEN_SECRET"`
	TokenIssuer string        `yaml:"token_issuer" env:"GOCHAT_TOKEN_ISSUER"`
	TokenTTL    time.Duration `yaml:"token_ttl"    env:"GOCHAT_TOKEN_TTL"`
}

// AccountConfig seeds one login account. PasswordHash is a bcrypt hash.
type AccountConfig struct {
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// AccountsConfig controls where login accounts live.
type AccountsConfig struct {
	RedisURL string          `yaml:"redis_url" env:"GOCHAT_ACCOUNTS_REDIS_URL"`
	Users    []AccountConfig `yaml:"users"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"  env:"GOCHAT_LOG_LEVEL"`
	Format string `yaml:"format" env:"GOCHAT_LOG_FORMAT"`
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string          `yaml:"port"             env:"GOCHAT_PORT"`
	AllowedOrigins  []string        `yaml:"allowed_origins"  env:"GOCHAT_ALLOWED_ORIGINS" envSeparator:","`
	MaxMessageSize  int64           `yaml:"max_message_size" env:"GOCHAT_MAX_MESSAGE_SIZE"`
	MaxNickLength   int             `yaml:"max_nick_length"  env:"GOCHAT_MAX_NICK_LENGTH"`
	SendBufferSize  int             `yaml:"send_buffer_size" env:"GOCHAT_SEND_BUFFER_SIZE"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" env:"GOCHAT_SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Identity        IdentityConfig  `yaml:"identity"`
	Accounts        AccountsConfig  `yaml:"accounts"`
	Log             LogConfig       `yaml:"log"`
}

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 4096
	defaultMaxNickLength   = 32
	defaultSendBufferSize  = 256
	defaultShutdownTimeout = 10 * time.Second
	defaultTokenIssuer     = "gochat-rooms"
	defaultTokenTTL        = 24 * time.Hour
)

func defaultConfig() Config {
	return Config{
		Port: defaultPort,
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:  defaultMaxMessageSize,
		MaxNickLength:   defaultMaxNickLength,
		SendBufferSize:  defaultSendBufferSize,
		ShutdownTimeout: defaultShutdownTimeout,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		Identity: IdentityConfig{
			Mode:        string(identity.ModeSelfDeclared),
			TokenIssuer: defaultTokenIssuer,
			TokenTTL:    defaultTokenTTL,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.MaxNickLength <= 0 {
		cfg.MaxNickLength = defaultMaxNickLength
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}

	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}

	cfg.Identity.Mode = strings.ToLower(strings.TrimSpace(cfg.Identity.Mode))
	if cfg.Identity.Mode == "" {
		cfg.Identity.Mode = string(identity.ModeSelfDeclared)
	}
	if cfg.Identity.TokenIssuer == "" {
		cfg.Identity.TokenIssuer = defaultTokenIssuer
	}
	if cfg.Identity.TokenTTL <= 0 {
		cfg.Identity.TokenTTL = defaultTokenTTL
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	cfg.AllowedOrigins = parseOrigins(cfg.AllowedOrigins)
	return cfg
}

// Validate reports configuration that cannot be served.
func (c Config) Validate() error {
	switch identity.Mode(c.Identity.Mode) {
	case identity.ModeSelfDeclared:
	case identity.ModePreAuthenticated:
		if c.Identity.TokenSecret == "" {
			return errors.New("identity.token_secret is required in pre-authenticated mode")
		}
	default:
		return fmt.Errorf("unknown identity.mode %q", c.Identity.Mode)
	}

	for _, account := range c.Accounts.Users {
		if strings.TrimSpace(account.Name) == "" || account.PasswordHash == "" {
			return fmt.Errorf("account %q needs name and password_hash", account.Name)
		}
	}
	return nil
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := sanitizeConfig(defaultConfig())
	return &cfg
}

// LoadConfig builds the configuration from defaults, the optional YAML file at
// path, and GOCHAT_* environment variables, in that order of precedence.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg = sanitizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseOrigins(origins []string) []string {
	parsed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			parsed = append(parsed, trimmed)
		}
	}
	return parsed
}
