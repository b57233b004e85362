package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/logging"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   logging.Config  `yaml:"logging" envconfig:"LOGGING"`
	Provider  ProviderConfig  `yaml:"provider" envconfig:"PROVIDER"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`
}

// ProviderConfig selects and configures the session provider.
type ProviderConfig struct {
	// Type is the provider type: whatsmeow or simulated
	Type string `yaml:"type" envconfig:"TYPE"`
	// AuthDir holds provider credential state, one device per instance.
	AuthDir string `yaml:"auth_dir" envconfig:"AUTH_DIR"`
	// ClientLogLevel is the provider client's own log level.
	ClientLogLevel string `yaml:"client_log_level" envconfig:"CLIENT_LOG_LEVEL"`
}

// StorageConfig contains instance-record storage configuration
type StorageConfig struct {
	// Type is the store type: memory, mongodb, or redis
	Type    string        `yaml:"type" envconfig:"TYPE"`
	MongoDB MongoDBConfig `yaml:"mongodb" envconfig:"MONGODB"`
	Redis   RedisConfig   `yaml:"redis" envconfig:"REDIS"`
}

// MongoDBConfig contains MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `yaml:"uri" envconfig:"URI"`
	Database string `yaml:"database" envconfig:"DATABASE"`
	Timeout  int    `yaml:"timeout" envconfig:"TIMEOUT"` // seconds
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Address   string `yaml:"address" envconfig:"ADDRESS"`
	Password  string `yaml:"password" envconfig:"PASSWORD"`
	DB        int    `yaml:"db" envconfig:"DB"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"KEY_PREFIX"`
}

// AuthConfig contains API authentication configuration. When enabled,
// requests must carry either the static bearer token or a valid HMAC JWT
// signed with the secret.
type AuthConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"ENABLED"`
	Token     string `yaml:"token" envconfig:"TOKEN"`
	JWTSecret string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
}

// RateLimitConfig contains request rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" envconfig:"ENABLED"`
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int     `yaml:"burst" envconfig:"BURST"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Load from YAML file if provided (overrides defaults)
	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, that's ok - we'll use defaults and env vars
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("WA", cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Logging: logging.Config{
			Level:     "info",
			Format:    "json",
			Directory: "logs",
		},
		Provider: ProviderConfig{
			Type:           "whatsmeow",
			AuthDir:        "auth",
			ClientLogLevel: "WARN",
		},
		Storage: StorageConfig{
			Type: "memory",
			MongoDB: MongoDBConfig{
				URI:      "mongodb://localhost:27017",
				Database: "whatsapp_api",
				Timeout:  10,
			},
			Redis: RedisConfig{
				Address:   "localhost:6379",
				KeyPrefix: "wa:instance:",
			},
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Provider.Type != "whatsmeow" && c.Provider.Type != "simulated" {
		return fmt.Errorf("invalid provider type: %s (must be whatsmeow or simulated)", c.Provider.Type)
	}

	if c.Storage.Type != "memory" && c.Storage.Type != "mongodb" && c.Storage.Type != "redis" {
		return fmt.Errorf("invalid storage type: %s (must be memory, mongodb, or redis)", c.Storage.Type)
	}

	if c.Storage.Type == "mongodb" && c.Storage.MongoDB.URI == "" {
		return fmt.Errorf("mongodb uri is required when using mongodb storage")
	}

	if c.Auth.Enabled && c.Auth.Token == "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth requires a token or jwt secret when enabled")
	}

	return nil
}

// Address returns the server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
