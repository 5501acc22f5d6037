package huefy

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/teracrafts/huefy-go/internal/retry"
)

const (
	// DefaultBaseURL is the production endpoint of the service.
	DefaultBaseURL = "https://api.huefy.dev"

	// LocalBaseURL is used when Config.Local is set and no other base URL was given.
	LocalBaseURL = "http://localhost:8080"
)

// Config holds the complete client configuration.
type Config struct {
	// APIKey authenticates every request. Required.
	APIKey string `yaml:"api_key"`

	// BaseURL is the service endpoint (default: DefaultBaseURL).
	BaseURL string `yaml:"base_url"`

	// Local points the client at LocalBaseURL unless BaseURL was changed
	// from its default.
	Local bool `yaml:"local"`

	// ConnectTimeout bounds connection establishment of one attempt.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// ReadTimeout bounds waiting for the response of one attempt.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// MaxIdleConnsPerHost sizes the idle connection pool.
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// Retry contains retry policy configuration.
	Retry RetryConfig `yaml:"retry"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Collaborators. These are set with options, never from a file.
	Logger         *zap.Logger           `yaml:"-"`
	TracerProvider trace.TracerProvider  `yaml:"-"`
	Registerer     prometheus.Registerer `yaml:"-"`
	Transport      Transport             `yaml:"-"`
}

// RetryConfig contains retry policy configuration. It is immutable once the
// client is built and shared by all of its operations.
type RetryConfig struct {
	// Enabled indicates whether retries are enabled.
	Enabled bool `yaml:"enabled"`

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"`

	// BackoffFactor is the delay before the first retry. It doubles for
	// every following retry.
	BackoffFactor time.Duration `yaml:"backoff_factor"`

	// MaxDelay caps the exponential delay. A Retry-After sent by the
	// service may exceed it.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Jitter adds up to 10% random delay to every backoff.
	Jitter bool `yaml:"jitter"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled indicates whether spans are recorded.
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns a configuration with sensible defaults. The API key
// still has to be set.
func DefaultConfig() Config {
	return Config{
		BaseURL:             DefaultBaseURL,
		ConnectTimeout:      10 * time.Second,
		ReadTimeout:         30 * time.Second,
		MaxIdleConnsPerHost: 10,
		Retry:               DefaultRetryConfig(),
		Tracing: TracingConfig{
			Enabled: true,
		},
	}
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Enabled:       true,
		MaxRetries:    3,
		BackoffFactor: 500 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		Jitter:        false,
	}
}

// DisabledRetryConfig returns a retry configuration that makes exactly one
// attempt per operation.
func DisabledRetryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.Enabled = false
	return cfg
}

// Endpoint returns the base URL requests are sent to, without trailing slash.
func (c *Config) Endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.Local && (base == "" || base == DefaultBaseURL) {
		return LocalBaseURL
	}
	if base == "" {
		return DefaultBaseURL
	}
	return base
}

// Validate checks if the configuration is valid and complete.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &Error{
			Kind:    KindValidation,
			Field:   "api_key",
			Message: "API key is required",
		}
	}

	endpoint := c.Endpoint()
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &Error{
			Kind:    KindValidation,
			Field:   "base_url",
			Message: "base URL must be an absolute http(s) URL",
			Value:   endpoint,
			Cause:   err,
		}
	}

	if c.ConnectTimeout <= 0 {
		return &Error{
			Kind:    KindValidation,
			Field:   "connect_timeout",
			Message: "connect timeout must be greater than 0",
		}
	}

	if c.ReadTimeout <= 0 {
		return &Error{
			Kind:    KindValidation,
			Field:   "read_timeout",
			Message: "read timeout must be greater than 0",
		}
	}

	if c.Retry.Enabled {
		if c.Retry.MaxRetries < 0 {
			return &Error{
				Kind:    KindValidation,
				Field:   "retry.max_retries",
				Message: "max retries must not be negative",
			}
		}
		if c.Retry.BackoffFactor <= 0 {
			return &Error{
				Kind:    KindValidation,
				Field:   "retry.backoff_factor",
				Message: "backoff factor must be greater than 0",
			}
		}
		if c.Retry.MaxDelay <= 0 {
			return &Error{
				Kind:    KindValidation,
				Field:   "retry.max_delay",
				Message: "max delay must be greater than 0",
			}
		}
	}

	return nil
}

func (r RetryConfig) policy() retry.Config {
	return retry.Config{
		Enabled:       r.Enabled,
		MaxRetries:    r.MaxRetries,
		BackoffFactor: r.BackoffFactor,
		MaxDelay:      r.MaxDelay,
		Jitter:        r.Jitter,
	}
}

// ParseConfig decodes a YAML document on top of DefaultConfig. Durations
// use Go syntax ("500ms", "30s").
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfiguration, err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}
