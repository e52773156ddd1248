package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/formkit/pkg/validator"
)

// EnvPrefix prefixes every environment override, e.g. FORMKIT_SERVER_PORT.
const EnvPrefix = "FORMKIT"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" split_words:"true"`
	Backend   BackendConfig   `mapstructure:"backend" split_words:"true"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" split_words:"true"`
	Breaker   BreakerConfig   `mapstructure:"breaker" split_words:"true"`
	CORS      CORSConfig      `mapstructure:"cors" split_words:"true"`
	Log       LogConfig       `mapstructure:"log" split_words:"true"`
	Metrics   MetricsConfig   `mapstructure:"metrics" split_words:"true"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" split_words:"true" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" split_words:"true" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" split_words:"true" validate:"gte=0"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" split_words:"true" validate:"gte=0"`
}

// BackendConfig points at the service that receives login and signup posts.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url" split_words:"true" validate:"required,http_url"`
	Timeout time.Duration `mapstructure:"timeout" split_words:"true" validate:"gte=0"`
	// Endpoints overrides form endpoints by form name.
	Endpoints map[string]string `mapstructure:"endpoints" split_words:"true"`
	// SubmitRate and SubmitBurst throttle submissions from one controller.
	SubmitRate  float64 `mapstructure:"submit_rate" split_words:"true" validate:"gte=0"`
	SubmitBurst int     `mapstructure:"submit_burst" split_words:"true" validate:"gte=0"`
}

// RateLimitConfig limits requests per client on the assist API.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled" split_words:"true"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" split_words:"true" validate:"required_if=Enabled true,gte=0"`
	Burst             int           `mapstructure:"burst" split_words:"true" validate:"gte=0"`
	ClientTTL         time.Duration `mapstructure:"client_ttl" split_words:"true"`
}

type BreakerConfig struct {
	MaxFailures int           `mapstructure:"max_failures" split_words:"true" validate:"gte=0"`
	MaxRequests int           `mapstructure:"max_requests" split_words:"true" validate:"gte=0"`
	Interval    time.Duration `mapstructure:"interval" split_words:"true"`
	Timeout     time.Duration `mapstructure:"timeout" split_words:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" split_words:"true"`
}

type LogConfig struct {
	Level string `mapstructure:"level" split_words:"true"`
	JSON  bool   `mapstructure:"json" split_words:"true"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" split_words:"true"`
	Path      string `mapstructure:"path" split_words:"true"`
	Namespace string `mapstructure:"namespace" split_words:"true"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 64<<10)

	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("backend.submit_rate", 1.0)
	v.SetDefault("backend.submit_burst", 3)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)
	v.SetDefault("rate_limit.client_ttl", 10*time.Minute)

	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", time.Minute)
	v.SetDefault("breaker.timeout", 30*time.Second)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "formkit")
}

// LoadConfig reads configuration in three layers: built-in defaults, an
// optional config.yaml (searched in dirs, or in . and ./config), then
// FORMKIT_* environment variables, which may also come from a .env file.
func LoadConfig(dirs ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(dirs) == 0 {
		dirs = []string{".", "./config"}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the validate tags; failures are validator.FieldErrors named
// by their config key, e.g. "server.port".
func (c *Config) Validate() error {
	if err := validator.New().Validate(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
