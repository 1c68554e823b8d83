package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome          = "NEARCONNECT_HOME"
	EnvNetwork       = "NEARCONNECT_NETWORK"
	EnvStore         = "NEARCONNECT_STORE"
	EnvConnectPolicy = "NEARCONNECT_CONNECT_POLICY"
	EnvRedisURL      = "NEARCONNECT_REDIS_URL"
	EnvRelayURL      = "NEARCONNECT_RELAY_URL"
	EnvPlugins       = "NEARCONNECT_PLUGINS"
	EnvAccountID     = "NEARCONNECT_ACCOUNT_ID"
	EnvOutputFormat  = "NEARCONNECT_OUTPUT_FORMAT"
	EnvVerbose       = "NEARCONNECT_VERBOSE"
	EnvLogLevel      = "NEARCONNECT_LOG_LEVEL"
	EnvEncrypt       = "NEARCONNECT_ENCRYPT_AT_REST"

	// EnvMnemonic and EnvStorePassphrase are read directly by the CLI and never stored in Config.
	EnvMnemonic        = "NEARCONNECT_MNEMONIC"
	EnvStorePassphrase = "NEARCONNECT_STORE_PASSPHRASE" // #nosec G101 -- false positive, this is a const name not a credential
)

// ApplyEnvironment applies environment variable overrides to the configuration.
//
//nolint:gocognit,gocyclo // Environment variable overrides require sequential checks
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvNetwork); v != "" {
		cfg.Network = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvStore); v != "" {
		cfg.Session.Store = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvConnectPolicy); v != "" {
		cfg.Session.ConnectPolicy = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvEncrypt); v != "" {
		cfg.Session.EncryptAtRest = parseBool(v)
	}

	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Redis.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvRelayURL); v != "" {
		cfg.Relay.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvPlugins); v != "" {
		cfg.Plugins = parseList(v)
	}

	if v := os.Getenv(EnvAccountID); v != "" {
		cfg.Signer.AccountID = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// parseList splits a comma-separated list, dropping empty entries.
func parseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SanitizeURL cleans a URL string by removing invalid characters and trimming whitespace.
// Relay and Redis URLs are often pasted from dashboards with stray characters.
func SanitizeURL(url string) string {
	return sanitize.URL(strings.TrimSpace(url))
}
