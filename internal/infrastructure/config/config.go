package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string        `mapstructure:"environment"`
	LogLevel    string        `mapstructure:"log_level"`
	Server      ServerConfig  `mapstructure:"server"`
	Webhook     WebhookConfig `mapstructure:"webhook"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // seconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // seconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // seconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"` // 0 disables rate limiting
}

// WebhookConfig controls how inbound FunnelFox webhooks are accepted
type WebhookConfig struct {
	// Secret enables HMAC verification. Empty means events are accepted unauthenticated.
	Secret             string `mapstructure:"secret"`
	SignatureHeader    string `mapstructure:"signature_header"`
	RequireSignature   bool   `mapstructure:"require_signature"`
	AcknowledgeUnknown bool   `mapstructure:"acknowledge_unknown"`
	MaxPayloadBytes    int64  `mapstructure:"max_payload_bytes"`
	EnableTestEndpoint bool   `mapstructure:"enable_test_endpoint"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Insecure     bool    `mapstructure:"insecure"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ShutdownGrace returns the graceful shutdown window
func (s ServerConfig) ShutdownGrace() time.Duration {
	return time.Duration(s.ShutdownTimeout) * time.Second
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the service runs in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// TestEndpointEnabled reports whether the echo endpoint should be mounted
func (c *Config) TestEndpointEnabled() bool {
	return c.IsDevelopment() && c.Webhook.EnableTestEndpoint
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	return load(viper.New(), "./configs", ".")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Set defaults
	setDefaults(v)

	// Read from config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Override specific environment variables
	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate required fields
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.shutdown_timeout", 30)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit_per_min", 600)

	// Webhook defaults
	v.SetDefault("webhook.secret", "")
	v.SetDefault("webhook.signature_header", "X-FunnelFox-Signature")
	v.SetDefault("webhook.require_signature", false)
	v.SetDefault("webhook.acknowledge_unknown", true)
	v.SetDefault("webhook.max_payload_bytes", 1<<20) // 1MB
	v.SetDefault("webhook.enable_test_endpoint", true)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
	v.SetDefault("tracing.service_name", "funnelfox-webhooks")
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.insecure", true)
}

func overrideFromEnv(v *viper.Viper) {
	// Server
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("server.port", p)
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		v.Set("server.host", host)
	}

	// NODE_ENV is what existing FunnelFox deployments set
	if os.Getenv("ENVIRONMENT") == "" {
		if env := os.Getenv("NODE_ENV"); env != "" {
			v.Set("environment", env)
		}
	}

	// Webhook
	if secret := os.Getenv("WEBHOOK_SECRET"); secret != "" {
		v.Set("webhook.secret", secret)
	}
	if header := os.Getenv("WEBHOOK_SIGNATURE_HEADER"); header != "" {
		v.Set("webhook.signature_header", header)
	}

	// Tracing
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		v.Set("tracing.otlp_endpoint", endpoint)
	}
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		v.Set("tracing.service_name", name)
	}
}

func validate(config *Config) error {
	switch config.Environment {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("unknown environment %q", config.Environment)
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", config.Server.Port)
	}

	if config.Server.RateLimitPerMin < 0 {
		return fmt.Errorf("server rate limit must not be negative")
	}

	if config.Webhook.MaxPayloadBytes <= 0 {
		return fmt.Errorf("webhook max payload bytes must be positive")
	}

	if strings.TrimSpace(config.Webhook.SignatureHeader) == "" {
		return fmt.Errorf("webhook signature header is required")
	}

	if config.Webhook.RequireSignature && config.Webhook.Secret == "" {
		return fmt.Errorf("webhook require_signature is set but no webhook secret is configured")
	}

	if config.Tracing.Enabled {
		if config.Tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing otlp endpoint is required when tracing is enabled")
		}
		if config.Tracing.SampleRatio < 0 || config.Tracing.SampleRatio > 1 {
			return fmt.Errorf("tracing sample ratio must be between 0 and 1")
		}
	}

	return nil
}
