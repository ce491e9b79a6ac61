package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/apppayai/payflow/pkg/logger"
)

// Config is the explicit configuration root. It is loaded once at startup and
// passed to constructors; no component re-reads the environment per call.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Quotes    QuotesConfig    `yaml:"quotes"`
	Execution ExecutionConfig `yaml:"execution"`
	Server    ServerConfig    `yaml:"server"`
	Logger    logger.Config   `yaml:"logger"`
}

// BackendConfig configures the payment backend HTTP client.
type BackendConfig struct {
	BaseURL          string        `yaml:"base_url" validate:"required,url"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries" validate:"gte=0"`
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`
}

// QuotesConfig configures the live quote websocket channel.
type QuotesConfig struct {
	URL              string        `yaml:"url" validate:"required"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PongWait         time.Duration `yaml:"pong_wait"`
	PingPeriod       time.Duration `yaml:"ping_period"`
}

// ExecutionConfig configures the payment execution pipeline.
type ExecutionConfig struct {
	ConfirmationTimeout      time.Duration `yaml:"confirmation_timeout"`
	ConfirmationPollInterval time.Duration `yaml:"confirmation_poll_interval"`
}

// ServerConfig configures the local quote simulator server.
type ServerConfig struct {
	Host          string        `yaml:"host"`
	Port          string        `yaml:"port" validate:"required"`
	Environment   string        `yaml:"environment"`
	QuoteInterval time.Duration `yaml:"quote_interval"`
}

var validate = validator.New()

func Load(path string) (*Config, error) {
	// A missing .env is fine; the yaml file is the source of truth.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	configData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 15 * time.Second
	}
	if c.Backend.RetryBackoffBase == 0 {
		c.Backend.RetryBackoffBase = 500 * time.Millisecond
	}
	if c.Quotes.HandshakeTimeout == 0 {
		c.Quotes.HandshakeTimeout = 5 * time.Second
	}
	if c.Quotes.WriteTimeout == 0 {
		c.Quotes.WriteTimeout = 10 * time.Second
	}
	if c.Quotes.PongWait == 0 {
		c.Quotes.PongWait = 60 * time.Second
	}
	if c.Quotes.PingPeriod == 0 {
		// Must fire before the peer's pong deadline expires.
		c.Quotes.PingPeriod = 54 * time.Second
	}
	if c.Execution.ConfirmationTimeout == 0 {
		c.Execution.ConfirmationTimeout = 2 * time.Minute
	}
	if c.Execution.ConfirmationPollInterval == 0 {
		c.Execution.ConfirmationPollInterval = 3 * time.Second
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.QuoteInterval == 0 {
		c.Server.QuoteInterval = 10 * time.Second
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}
