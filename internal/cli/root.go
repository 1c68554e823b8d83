// Package cli implements the nearconnect command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/output"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// annotationNoApp marks commands that run without opening the session store.
const annotationNoApp = "nearconnect/no-app"

var (
	// Global flags
	homeDir      string
	outputFormat string
	networkFlag  string
	verbose      bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	appCtx    *CommandContext
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nearconnect",
	Short: "Connect NEAR wallets and manage the signed-in session",
	Long: `nearconnect signs in to a NEAR wallet through an ordered chain of
plugins, keeps the resulting session across runs, and scopes it to the
selected network.

The stored session is restored before every command, so "status" reports
the wallet signed in by a previous "connect".

Example:
  nearconnect connect
  nearconnect status -o json
  nearconnect network switch testnet`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := initGlobals(); err != nil {
			return err
		}
		if !needsApp(cmd) {
			return nil
		}
		return openApp(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		if formatter != nil {
			_ = output.FormatError(os.Stderr, err, formatter.Format())
		} else {
			_ = output.FormatError(os.Stderr, err, output.FormatText)
		}
		cleanup()
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return connerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, and formatter.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	cfg, err = config.Load(config.Path(home))
	switch {
	case os.IsNotExist(err):
		cfg = config.Defaults()
		cfg.Home = home
	case err != nil:
		return err
	}

	config.ApplyEnvironment(cfg)

	if homeDir != "" {
		cfg.Home = homeDir
	}
	if networkFlag != "" {
		cfg.Network = networkFlag
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	formatter = output.NewFormatter(output.ParseFormat(cfg.Output.DefaultFormat), os.Stdout)
	return nil
}

// needsApp reports whether cmd works on the session.
func needsApp(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return cmd.Annotations[annotationNoApp] != "true"
}

// openApp wires the session manager for cmd and restores the stored session.
func openApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cc, err := buildApp(ctx, cfg, logger, formatter)
	if err != nil {
		return err
	}
	appCtx = cc

	cmd.SetContext(ctx)
	SetCmdContext(cmd, cc)

	if s := cc.Manager.RestoreSession(ctx); s != nil {
		logger.Debug("restored session for %s", s.AccountID)
	}
	return nil
}

// cleanup releases resources.
func cleanup() {
	if appCtx != nil {
		_ = appCtx.Close()
		appCtx = nil
	}
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "nearconnect data directory (default: ~/.nearconnect)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "network for this run: mainnet or testnet")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "session", Title: "Session Commands:"},
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
	)
}
