package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Port      string `envconfig:"APP_PORT" default:"8080"`
		JWTSecret string `envconfig:"JWT_SECRET"`
	}

	DB struct {
		Driver   string `envconfig:"DB_DRIVER" default:"mysql"`
		Host     string `envconfig:"DB_HOST" default:"mysql"`
		Port     string `envconfig:"DB_PORT" default:"3306"`
		Name     string `envconfig:"DB_NAME" default:"lending"`
		User     string `envconfig:"DB_USER" default:"lending"`
		Pass     string `envconfig:"DB_PASS" default:""`
		LogLevel string `envconfig:"DB_LOG_LEVEL" default:"warn"`
		Migrate  bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
	}

	Redis struct {
		Addr string `envconfig:"REDIS_ADDR" default:"redis:6379"`
		DB   int    `envconfig:"REDIS_DB" default:"0"`
	}

	Idempotency struct {
		TTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	}

	Provider struct {
		BaseURL   string        `envconfig:"MONO_BASE_URL"`
		SecretKey string        `envconfig:"MONO_SECRET_KEY"`
		Timeout   time.Duration `envconfig:"MONO_TIMEOUT" default:"30s"`
	}

	Sweep struct {
		Interval    time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
		BatchSize   int           `envconfig:"SWEEP_BATCH_SIZE" default:"100"`
		Concurrency int           `envconfig:"SWEEP_CONCURRENCY" default:"4"`
		StaleAfter  time.Duration `envconfig:"SWEEP_STALE_AFTER" default:"15m"`
		LockTTL     time.Duration `envconfig:"SWEEP_LOCK_TTL" default:"10m"`
	}

	Retry struct {
		MaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
		BaseBackoff time.Duration `envconfig:"RETRY_BASE_BACKOFF" default:"1h"`
		MaxBackoff  time.Duration `envconfig:"RETRY_MAX_BACKOFF" default:"24h"`
	}
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Port == "" || c.DB.Name == "" || c.DB.User == "" {
		return errors.New("missing DB config (DB_HOST/PORT/NAME/USER)")
	}
	if _, err := strconv.Atoi(c.DB.Port); err != nil {
		return fmt.Errorf("invalid DB_PORT %q: %w", c.DB.Port, err)
	}
	switch strings.ToLower(c.DB.Driver) {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.App.Port == "" {
		return errors.New("missing APP_PORT")
	}
	if c.App.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	if c.Sweep.BatchSize <= 0 || c.Sweep.Concurrency <= 0 {
		return errors.New("SWEEP_BATCH_SIZE and SWEEP_CONCURRENCY must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return errors.New("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// ValidateWorker adds the checks the sweep worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.ProviderConfigured() {
		return errors.New("missing provider config (MONO_BASE_URL/MONO_SECRET_KEY)")
	}
	return nil
}

func (c *Config) ProviderConfigured() bool {
	return c.Provider.BaseURL != "" && c.Provider.SecretKey != ""
}

func (c *Config) dbAddr() string { return net.JoinHostPort(c.DB.Host, c.DB.Port) }

func (c *Config) DSN() string {
	if strings.EqualFold(c.DB.Driver, "postgres") {
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
			c.DB.User, c.DB.Pass, c.dbAddr(), c.DB.Name)
	}
	// parseTime needed for DATETIME/DATE scanning
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.DB.User, c.DB.Pass, c.dbAddr(), c.DB.Name)
}
