// Package config provides configuration management for nearconnect.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/nearconnect/internal/near"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// Session store backends.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
	StoreRedis   = "redis"
	StoreMemory  = "memory"
)

// Connect policies applied when Connect is called while another attempt is in flight.
const (
	ConnectPolicyWait = "wait"
	ConnectPolicyFail = "fail"
)

// Plugin names accepted in the plugins list.
const (
	PluginSignature = "signature"
	PluginRelay     = "relay"
)

// Config represents the application configuration.
type Config struct {
	Version int           `yaml:"version"`
	Home    string        `yaml:"home"`
	Network string        `yaml:"network"`
	Plugins []string      `yaml:"plugins"`
	Session SessionConfig `yaml:"session"`
	Redis   RedisConfig   `yaml:"redis"`
	Relay   RelayConfig   `yaml:"relay"`
	Signer  SignerConfig  `yaml:"signer"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SessionConfig defines session persistence and connect behavior.
type SessionConfig struct {
	Store         string `yaml:"store"`
	ConnectPolicy string `yaml:"connect_policy"`
	EncryptAtRest bool   `yaml:"encrypt_at_rest"`
}

// RedisConfig defines the Redis session backend.
type RedisConfig struct {
	URL                   string `yaml:"url"`
	KeyPrefix             string `yaml:"key_prefix"`
	RetryAttempts         int    `yaml:"retry_attempts"`
	RetryIntervalMillis   int    `yaml:"retry_interval_ms"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
}

// RelayConfig defines the websocket relay used by the relay plugin.
type RelayConfig struct {
	URL                     string  `yaml:"url"`
	HandshakeTimeoutSeconds int     `yaml:"handshake_timeout_seconds"`
	RatePerSecond           float64 `yaml:"rate_per_second"`
	Burst                   int     `yaml:"burst"`
}

// SignerConfig defines the local message signer used by the signature plugin.
type SignerConfig struct {
	AccountID string `yaml:"account_id"`
	Recipient string `yaml:"recipient"`
	Message   string `yaml:"message"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, connerr.WithCause(connerr.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := near.ParseNetwork(c.Network); err != nil {
		return err
	}

	switch c.Session.Store {
	case StoreFile, StoreKeyring, StoreRedis, StoreMemory:
	default:
		return invalid("session.store", c.Session.Store)
	}

	switch c.Session.ConnectPolicy {
	case ConnectPolicyWait, ConnectPolicyFail:
	default:
		return invalid("session.connect_policy", c.Session.ConnectPolicy)
	}

	if c.Session.Store == StoreRedis && c.Redis.URL == "" {
		return invalid("redis.url", "")
	}

	for _, name := range c.Plugins {
		switch name {
		case PluginSignature:
		case PluginRelay:
			if c.Relay.URL == "" {
				return invalid("relay.url", "")
			}
		default:
			return connerr.WithDetails(connerr.ErrUnknownPlugin, map[string]string{"plugin": name})
		}
	}

	return nil
}

func invalid(key, value string) error {
	return connerr.WithDetails(connerr.ErrConfigInvalid, map[string]string{
		"key":   key,
		"value": value,
	})
}

// GetHome returns the home directory with a leading "~/" expanded.
func (c *Config) GetHome() string {
	return ExpandHome(c.Home)
}

// GetNetwork returns the selected network, falling back to mainnet.
func (c *Config) GetNetwork() near.Network {
	n, err := near.ParseNetwork(c.Network)
	if err != nil {
		return near.Mainnet
	}
	return n
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetOutputFormat returns the default output format.
func (c *Config) GetOutputFormat() string {
	return c.Output.DefaultFormat
}

// IsVerbose returns true if verbose output is enabled.
func (c *Config) IsVerbose() bool {
	return c.Output.Verbose
}

// StateDir returns the directory holding file-backed state.
func (c *Config) StateDir() string {
	return filepath.Join(c.GetHome(), "state")
}

// DefaultHome returns the default nearconnect home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nearconnect"
	}
	return filepath.Join(home, ".nearconnect")
}

// ExpandHome expands a leading "~/" to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
