// Package config provides configuration loading for the storefront CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds the application configuration.
type Config struct {
	// Endpoint is the storefront API base URL
	Endpoint string `mapstructure:"endpoint"`

	// Auth configuration
	Auth AuthConfig `mapstructure:"auth"`

	// CustomerID is used when the token does not carry a customer claim
	CustomerID string `mapstructure:"customer_id"`

	// Session store configuration
	Session SessionConfig `mapstructure:"session"`

	// Remote client configuration
	Remote RemoteConfig `mapstructure:"remote"`

	// Checkout configuration
	Checkout CheckoutConfig `mapstructure:"checkout"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Token string `mapstructure:"token"`
}

// SessionConfig selects and configures the session store backend.
type SessionConfig struct {
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	DSN     string      `mapstructure:"dsn"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

// RemoteConfig holds HTTP client configuration.
type RemoteConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// RetryConfig configures retries of idempotent requests.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// BreakerConfig configures the circuit breaker in front of the API.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

// CheckoutConfig holds checkout behaviour switches.
type CheckoutConfig struct {
	// SubmitOrders sends confirmed orders to the API before the payment stage.
	SubmitOrders bool `mapstructure:"submit_orders"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	Persist bool   `mapstructure:"persist"`
}

// envKeyReplacer maps nested keys to env names: session.backend -> STOREFRONT_SESSION_BACKEND.
var envKeyReplacer = strings.NewReplacer(".", "_")

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: "http://localhost:5000",
		Session: SessionConfig{
			Backend: BackendSQLite,
			Path:    defaultSessionPath(),
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				Namespace: "default",
			},
		},
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:  2,
				InitialDelay: 200 * time.Millisecond,
			},
			Breaker: BreakerConfig{
				MaxFailures: 3,
				OpenTimeout: 30 * time.Second,
			},
		},
		Checkout: CheckoutConfig{
			SubmitOrders: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from file and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Session.Backend {
	case BackendSQLite, BackendPostgres, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q (want sqlite, postgres, redis or memory)", c.Session.Backend)
	}
	if c.Session.Backend == BackendPostgres && c.Session.DSN == "" {
		return fmt.Errorf("session.dsn is required for the postgres backend")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json":
	default:
		return fmt.Errorf("unsupported logging format %q (want json)", c.Logging.Format)
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout cannot be negative")
	}
	return nil
}

// Dir returns the storefront configuration directory (~/.storefront).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".storefront"), nil
}

func defaultSessionPath() string {
	dir, err := Dir()
	if err != nil {
		return "session.db"
	}
	return filepath.Join(dir, "session.db")
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("auth.token", "")
	v.SetDefault("customer_id", "")
	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.path", d.Session.Path)
	v.SetDefault("session.dsn", "")
	v.SetDefault("session.redis.addr", d.Session.Redis.Addr)
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.namespace", d.Session.Redis.Namespace)
	v.SetDefault("remote.timeout", d.Remote.Timeout)
	v.SetDefault("remote.retry.max_attempts", d.Remote.Retry.MaxAttempts)
	v.SetDefault("remote.retry.initial_delay", d.Remote.Retry.InitialDelay)
	v.SetDefault("remote.breaker.max_failures", d.Remote.Breaker.MaxFailures)
	v.SetDefault("remote.breaker.open_timeout", d.Remote.Breaker.OpenTimeout)
	v.SetDefault("checkout.submit_orders", d.Checkout.SubmitOrders)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.persist", false)
}
