package config

// Default connection settings.
const (
	DefaultRedisKeyPrefix          = "nearconnect:"
	DefaultRelayHandshakeTimeout   = 120
	DefaultRelayRatePerSecond      = 2
	DefaultRelayBurst              = 4
	DefaultSignerRecipient         = "nearconnect.near"
	DefaultSignerMessage           = "Sign in to nearconnect"
	defaultRedisRetryAttempts      = 3
	defaultRedisRetryIntervalMs    = 500
	defaultRedisConnectTimeoutSecs = 10
)

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.nearconnect",
		Network: "mainnet",
		Plugins: []string{PluginSignature},
		Session: SessionConfig{
			Store:         StoreFile,
			ConnectPolicy: ConnectPolicyWait,
			EncryptAtRest: false,
		},
		Redis: RedisConfig{
			KeyPrefix:             DefaultRedisKeyPrefix,
			RetryAttempts:         defaultRedisRetryAttempts,
			RetryIntervalMillis:   defaultRedisRetryIntervalMs,
			ConnectTimeoutSeconds: defaultRedisConnectTimeoutSecs,
		},
		Relay: RelayConfig{
			HandshakeTimeoutSeconds: DefaultRelayHandshakeTimeout,
			RatePerSecond:           DefaultRelayRatePerSecond,
			Burst:                   DefaultRelayBurst,
		},
		Signer: SignerConfig{
			Recipient: DefaultSignerRecipient,
			Message:   DefaultSignerMessage,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.nearconnect/nearconnect.log",
		},
	}
}
