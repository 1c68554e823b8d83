package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/config"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage configuration",
	GroupID:     "setup",
	Long:        `View and initialize nearconnect configuration settings.`,
	Annotations: map[string]string{annotationNoApp: "true"},
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.nearconnect/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.

Example:
  nearconnect config init
  nearconnect config init --force`,
	Annotations: map[string]string{annotationNoApp: "true"},
	RunE:        runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration after environment overrides.

Example:
  nearconnect config show
  nearconnect config show -o json`,
	Annotations: map[string]string{annotationNoApp: "true"},
	RunE:        runConfigShow,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.GetHome())

	if _, err := os.Stat(configPath); err == nil && !configForce {
		return connerr.WithSuggestion(
			connerr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - network: mainnet or testnet")
	outln(w, "  - plugins: sign-in plugins in chain order (signature, relay)")
	outln(w, "  - session.store: file, keyring, redis or memory")
	outln(w, "  - relay.url: websocket relay for the relay plugin")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if formatter != nil && formatter.IsJSON() {
		return writeJSON(w, configView(cfg))
	}
	return displayConfigText(w, cfg)
}

// configView is the printable form of the configuration. URL passwords are masked.
func configView(c *config.Config) map[string]any {
	return map[string]any{
		"home":    c.Home,
		"network": c.Network,
		"plugins": c.Plugins,
		"session": map[string]any{
			"store":           c.Session.Store,
			"connect_policy":  c.Session.ConnectPolicy,
			"encrypt_at_rest": c.Session.EncryptAtRest,
		},
		"redis": map[string]any{
			"url":        redactURL(c.Redis.URL),
			"key_prefix": c.Redis.KeyPrefix,
		},
		"relay": map[string]any{
			"url":                       redactURL(c.Relay.URL),
			"handshake_timeout_seconds": c.Relay.HandshakeTimeoutSeconds,
		},
		"signer": map[string]any{
			"account_id": c.Signer.AccountID,
			"recipient":  c.Signer.Recipient,
		},
		"logging": map[string]any{
			"level": c.Logging.Level,
			"file":  c.Logging.File,
		},
	}
}

// redactURL cleans raw and masks any password it carries.
func redactURL(raw string) string {
	clean := config.SanitizeURL(raw)
	u, err := url.Parse(clean)
	if err != nil {
		return clean
	}
	return u.Redacted()
}

func displayConfigText(w io.Writer, c *config.Config) error {
	out(w, "Home:            %s\n", c.Home)
	out(w, "Network:         %s\n", c.Network)
	out(w, "Plugins:         %s\n", strings.Join(c.Plugins, ", "))
	out(w, "Session store:   %s\n", c.Session.Store)
	out(w, "Connect policy:  %s\n", c.Session.ConnectPolicy)
	out(w, "Encrypt at rest: %t\n", c.Session.EncryptAtRest)
	if c.Session.Store == config.StoreRedis {
		out(w, "Redis:           %s\n", redactURL(c.Redis.URL))
	}
	if c.Relay.URL != "" {
		out(w, "Relay:           %s\n", redactURL(c.Relay.URL))
	}
	if c.Signer.AccountID != "" {
		out(w, "Signer account:  %s\n", c.Signer.AccountID)
	}
	out(w, "Log level:       %s\n", c.Logging.Level)
	return nil
}
