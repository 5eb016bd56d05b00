package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (VEGNAR_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (VEGNAR_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Gateway     GatewayConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// GatewayConfig holds the payment gateway credentials and client settings.
// KeySecret is used for intent creation and signature verification; it must
// never appear in responses or logs.
type GatewayConfig struct {
	KeyID     string        `usage:"payment gateway key id (VEGNAR_GATEWAY_KEY_ID)" flag:"gateway-key-id"`
	KeySecret string        `usage:"payment gateway shared secret (VEGNAR_GATEWAY_KEY_SECRET)" flag:"gateway-key-secret"`
	BaseURL   string        `default:"https://api.razorpay.com" usage:"payment gateway API base URL" flag:"gateway-base-url"`
	Timeout   time.Duration `default:"8s" usage:"payment gateway request timeout" flag:"gateway-timeout"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "VEGNAR",
		Files:     []string{"config.yaml", "/etc/vegnar/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set VEGNAR_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Gateway.KeyID == "" || cfg.Gateway.KeySecret == "" {
		return nil, errors.New("gateway credentials are required: set VEGNAR_GATEWAY_KEY_ID and VEGNAR_GATEWAY_KEY_SECRET")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's VEGNAR_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
