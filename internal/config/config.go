// ABOUTME: Configuration loading and parsing for the minnow client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete minnow client configuration
type Config struct {
	Platform PlatformConfig `yaml:"platform"`
	Stream   StreamConfig   `yaml:"stream"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Prefs    PrefsConfig    `yaml:"prefs"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PlatformConfig holds the base URLs of the platform services the client
// submits requests to.
type PlatformConfig struct {
	ConversationURL string `yaml:"conversation_url"`
	UserURL         string `yaml:"user_url"`
	SkillSetURL     string `yaml:"skill_set_url"`
}

// StreamConfig holds the push-channel endpoint and reconnect timing.
type StreamConfig struct {
	URL string `yaml:"url"`

	ReconnectDelay time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	ReconnectDelayRaw string `yaml:"reconnect_delay"`
}

// DefaultsConfig holds the model selection used when no preference is cached.
type DefaultsConfig struct {
	ProviderID string `yaml:"provider_id"`
	ModelID    string `yaml:"model_id"`
}

// PrefsConfig holds the on-disk preference cache location.
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultReconnectDelay is used when stream.reconnect_delay is not set.
const DefaultReconnectDelay = time.Second

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Platform.ConversationURL == "" {
		return fmt.Errorf("platform.conversation_url is required")
	}
	if c.Platform.UserURL == "" {
		return fmt.Errorf("platform.user_url is required")
	}
	if c.Stream.URL == "" {
		return fmt.Errorf("stream.url is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Stream.ReconnectDelayRaw == "" {
		cfg.Stream.ReconnectDelay = DefaultReconnectDelay
		return nil
	}

	d, err := time.ParseDuration(cfg.Stream.ReconnectDelayRaw)
	if err != nil {
		return fmt.Errorf("parsing reconnect_delay %q: %w", cfg.Stream.ReconnectDelayRaw, err)
	}
	cfg.Stream.ReconnectDelay = d
	return nil
}
