package cli

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/event"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/near"
	"github.com/mrz1836/nearconnect/internal/output"
	"github.com/mrz1836/nearconnect/internal/plugin"
	"github.com/mrz1836/nearconnect/internal/plugin/relay"
	"github.com/mrz1836/nearconnect/internal/plugin/signature"
	"github.com/mrz1836/nearconnect/internal/session"
	"github.com/mrz1836/nearconnect/internal/signer"
	"github.com/mrz1836/nearconnect/internal/storage"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// maxPluginTypoDistance bounds how far a misspelt plugin name may be from a
// known one before no suggestion is offered.
const maxPluginTypoDistance = 3

// knownPlugins lists plugin names in the order they are suggested.
//
//nolint:gochecknoglobals // Static lookup table
var knownPlugins = []string{config.PluginSignature, config.PluginRelay}

// buildApp opens the session store, builds the configured plugins and
// returns a CommandContext holding the wired session manager.
func buildApp(ctx context.Context, cfg *config.Config, logger *config.Logger, formatter *output.Formatter) (*CommandContext, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	cc := NewCommandContext(cfg, logger, formatter)

	kv, err := openStore(ctx, cc)
	if err != nil {
		_ = cc.Close()
		return nil, err
	}

	store := session.NewStore(kv, logger.Named("store"), cc.Metrics)
	mgr := session.NewManager(store,
		session.WithNetwork(cfg.GetNetwork()),
		session.WithConnectPolicy(cfg.Session.ConnectPolicy),
		session.WithSignInMessage(cfg.Signer.Message, cfg.Signer.Recipient),
		session.WithLogger(logger.Named("session")),
		session.WithMetrics(cc.Metrics),
	)

	plugins, err := buildPlugins(cc, kv)
	if err != nil {
		_ = cc.Close()
		return nil, err
	}
	for _, p := range plugins {
		mgr.Use(p)
	}

	watchEvents(mgr, logger)
	return cc.WithManager(mgr), nil
}

// validateConfig checks cfg and adds a suggestion to unknown plugin names.
func validateConfig(cfg *config.Config) error {
	for _, name := range cfg.Plugins {
		if !isKnownPlugin(name) {
			err := connerr.WithDetails(connerr.ErrUnknownPlugin, map[string]string{"plugin": name})
			if s := suggestPlugin(name); s != "" {
				return connerr.WithSuggestion(err, "did you mean \""+s+"\"?")
			}
			return connerr.WithSuggestion(err, "known plugins: "+strings.Join(knownPlugins, ", "))
		}
	}
	return cfg.Validate()
}

func isKnownPlugin(name string) bool {
	for _, k := range knownPlugins {
		if k == name {
			return true
		}
	}
	return false
}

// suggestPlugin returns the known plugin name closest to input, or "".
func suggestPlugin(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}

	var suggestion string
	minDist := maxPluginTypoDistance + 1
	for _, name := range knownPlugins {
		if dist := levenshtein.ComputeDistance(input, name); dist < minDist {
			minDist = dist
			suggestion = name
		}
	}
	return suggestion
}

// openStore opens the configured session backend, wrapping it with
// at-rest encryption when enabled.
func openStore(ctx context.Context, cc *CommandContext) (storage.KV, error) {
	cfg := cc.Cfg

	var kv storage.KV
	switch cfg.Session.Store {
	case config.StoreMemory:
		kv = storage.NewMemory()
	case config.StoreKeyring:
		kr := storage.NewKeyringKV(storage.NewOSKeyring(), storage.KeyringService)
		if !kr.Probe() {
			return nil, connerr.WithSuggestion(
				connerr.WithDetails(connerr.ErrConfigInvalid, map[string]string{"key": "session.store", "value": cfg.Session.Store}),
				"the system keyring is unavailable; set session.store to \"file\"",
			)
		}
		kv = kr
	case config.StoreRedis:
		client, err := storage.ConnectRedis(ctx, storage.RedisConfig{
			URL:            cfg.Redis.URL,
			RetryAttempts:  cfg.Redis.RetryAttempts,
			RetryInterval:  time.Duration(cfg.Redis.RetryIntervalMillis) * time.Millisecond,
			ConnectTimeout: time.Duration(cfg.Redis.ConnectTimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, connerr.WithDetails(
				connerr.Wrap(err, "connecting session store"),
				map[string]string{"url": config.SanitizeURL(cfg.Redis.URL)},
			)
		}
		r := storage.NewRedis(client, cfg.Redis.KeyPrefix)
		cc.onClose(r.Close)
		kv = r
	default:
		kv = storage.NewFile(cfg.StateDir())
	}

	if !cfg.Session.EncryptAtRest {
		return kv, nil
	}

	passphrase := os.Getenv(config.EnvStorePassphrase)
	if passphrase == "" {
		var err error
		passphrase, err = promptSecretFn("Session store passphrase: ")
		if err != nil {
			return nil, err
		}
	}
	if passphrase == "" {
		return nil, connerr.WithSuggestion(connerr.ErrInvalidInput, "encrypt_at_rest needs a passphrase; set "+config.EnvStorePassphrase)
	}
	return storage.NewEncrypted(kv, passphrase), nil
}

// buildPlugins creates the configured plugins in chain order.
func buildPlugins(cc *CommandContext, kv storage.KV) ([]plugin.Plugin, error) {
	cfg := cc.Cfg

	plugins := make([]plugin.Plugin, 0, len(cfg.Plugins))
	for _, name := range cfg.Plugins {
		switch name {
		case config.PluginSignature:
			ls := &lazySigner{accountID: cfg.Signer.AccountID}
			cc.onClose(ls.Close)
			sp := signature.New(ls, kv, signature.WithLogger(cc.Log.Named(signature.Name)))
			cc.onForget(sp.Forget)
			plugins = append(plugins, sp)
		case config.PluginRelay:
			limiter := relay.NewRateLimiter(cfg.Relay.RatePerSecond, cfg.Relay.Burst)
			timeout := time.Duration(cfg.Relay.HandshakeTimeoutSeconds) * time.Second
			log := cc.Log.Named(relay.Name)
			client, err := relay.NewClient(cfg.Relay.URL, timeout, limiter, log, cc.Metrics)
			if err != nil {
				return nil, err
			}
			plugins = append(plugins, relay.New(client, log))
		}
	}
	return plugins, nil
}

// watchEvents logs session events.
func watchEvents(mgr *session.Manager, logger *config.Logger) {
	mgr.On(event.SignIn, func(_ context.Context, payload any) error {
		if p, ok := payload.(event.SignInPayload); ok && len(p.Accounts) > 0 {
			logger.Info("signed in as %s", p.Accounts[0].AccountID)
		}
		return nil
	})
	mgr.On(event.SignOut, func(_ context.Context, _ any) error {
		logger.Info("signed out")
		return nil
	})
	mgr.On(event.NetworkChanged, func(_ context.Context, payload any) error {
		if p, ok := payload.(event.NetworkChangedPayload); ok {
			logger.Info("network changed from %s to %s", p.From, p.To)
		}
		return nil
	})
}

// lazySigner defers reading the recovery phrase until a signature is
// needed, so commands that only restore the session never prompt.
type lazySigner struct {
	accountID string

	once   sync.Once
	signer *signer.LocalSigner
	err    error
}

// Compile-time interface check
var _ signer.Signer = (*lazySigner)(nil)

func (l *lazySigner) load() (*signer.LocalSigner, error) {
	l.once.Do(func() {
		mnemonic := os.Getenv(config.EnvMnemonic)
		if mnemonic == "" {
			mnemonic, l.err = promptMnemonicFn()
			if l.err != nil {
				return
			}
		}
		l.signer, l.err = signer.NewLocalSignerFromMnemonic(l.accountID, mnemonic, "",
			signer.WithApproval(func(req signer.MessageRequest) bool {
				if os.Getenv(config.EnvMnemonic) != "" {
					return true
				}
				return promptConfirmFn("Sign \"" + req.Message + "\" for " + req.Recipient + "?")
			}),
		)
	})
	return l.signer, l.err
}

func (l *lazySigner) Account(ctx context.Context) (near.Account, error) {
	s, err := l.load()
	if err != nil {
		return near.Account{}, err
	}
	return s.Account(ctx)
}

func (l *lazySigner) SignMessage(ctx context.Context, req signer.MessageRequest) (*signer.SignedMessage, error) {
	s, err := l.load()
	if err != nil {
		return nil, err
	}
	return s.SignMessage(ctx, req)
}

// Close releases the key if it was loaded.
func (l *lazySigner) Close() error {
	if l.signer != nil {
		return l.signer.Close()
	}
	return nil
}

// metricsFor returns the metrics a command reports on.
func metricsFor(cc *CommandContext) *metrics.Metrics {
	if cc != nil && cc.Metrics != nil {
		return cc.Metrics
	}
	return metrics.Global
}
