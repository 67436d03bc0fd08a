// ABOUTME: Configuration loading and parsing for the scribe client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete scribe client configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Chat     ChatConfig     `yaml:"chat"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the chat service endpoint configuration
type ServerConfig struct {
	// BaseURL is the root of the chat service, e.g. "http://localhost:8000"
	BaseURL string `yaml:"base_url"`

	RequestTimeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	RequestTimeoutRaw string `yaml:"request_timeout"`
}

// ChatConfig holds conversation defaults
type ChatConfig struct {
	// Model is the model identifier sent with each message; empty lets the
	// server pick its default
	Model string `yaml:"model"`

	// TopK is the retrieval result count sent with each message
	TopK int `yaml:"top_k"`
}

// DatabaseConfig holds local state database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file exists.
// The database path is left empty; the caller fills in its data directory.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			RequestTimeout: 5 * time.Minute,
		},
		Chat: ChatConfig{
			TopK: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded and
// duration strings are parsed into time.Duration values. A missing file is
// not an error: the defaults are returned so the client runs unconfigured.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}

	if c.Chat.TopK <= 0 {
		return fmt.Errorf("chat.top_k must be positive, got %d", c.Chat.TopK)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Server.RequestTimeoutRaw != "" {
		timeout, err := time.ParseDuration(cfg.Server.RequestTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing request_timeout %q: %w", cfg.Server.RequestTimeoutRaw, err)
		}
		cfg.Server.RequestTimeout = timeout
	}

	return nil
}
