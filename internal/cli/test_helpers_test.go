package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/near"
	"github.com/mrz1836/nearconnect/internal/output"
	"github.com/mrz1836/nearconnect/internal/plugin"
	"github.com/mrz1836/nearconnect/internal/session"
	"github.com/mrz1836/nearconnect/internal/storage"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

//nolint:gochecknoglobals // Shared test fixture
var bob = near.Account{AccountID: "bob.near", PublicKey: "ed25519:xyz"}

// testApp is a wired command context writing JSON into buf.
type testApp struct {
	cmd *cobra.Command
	cc  *CommandContext
	kv  *storage.Memory
	buf *bytes.Buffer
}

func newTestApp(t *testing.T, plugins ...plugin.Plugin) *testApp {
	t.Helper()

	c := config.Defaults()
	c.Home = t.TempDir()
	c.Session.Store = config.StoreMemory

	app := &testApp{kv: storage.NewMemory(), buf: &bytes.Buffer{}}
	app.cc = NewCommandContext(c, config.NullLogger(), output.NewFormatter(output.FormatJSON, app.buf))
	app.cc.Metrics = &metrics.Metrics{}

	store := session.NewStore(app.kv, app.cc.Log, app.cc.Metrics)
	mgr := session.NewManager(store,
		session.WithNetwork(c.GetNetwork()),
		session.WithLogger(app.cc.Log),
		session.WithMetrics(app.cc.Metrics),
	)
	for _, p := range plugins {
		mgr.Use(p)
	}
	app.cc.WithManager(mgr)

	app.cmd = &cobra.Command{}
	app.cmd.SetContext(context.Background())
	SetCmdContext(app.cmd, app.cc)
	return app
}

// handles returns a plugin that signs in and reports acct.
func handles(name string, acct near.Account) *plugin.Funcs {
	return &plugin.Funcs{
		PluginName: name,
		SignInFn: func(context.Context, plugin.Params) plugin.Result {
			return plugin.Handled(acct)
		},
		GetAccountsFn: func(context.Context, plugin.Params) plugin.Result {
			return plugin.Handled(acct)
		},
	}
}

// withMockPrompts replaces prompt functions for testing and restores on cleanup.
func withMockPrompts(t *testing.T, secret, mnemonic string, confirm bool) {
	t.Helper()
	origSecret := promptSecretFn
	origMnemonic := promptMnemonicFn
	origConfirm := promptConfirmFn
	t.Cleanup(func() {
		promptSecretFn = origSecret
		promptMnemonicFn = origMnemonic
		promptConfirmFn = origConfirm
	})
	promptSecretFn = func(string) (string, error) { return secret, nil }
	promptMnemonicFn = func() (string, error) { return mnemonic, nil }
	promptConfirmFn = func(string) bool { return confirm }
}

// withGlobals sets the package-level config and formatter for commands that
// read them, restoring the previous values on cleanup.
func withGlobals(t *testing.T, c *config.Config, f *output.Formatter) {
	t.Helper()
	origCfg, origFmt := cfg, formatter
	t.Cleanup(func() {
		cfg, formatter = origCfg, origFmt
	})
	cfg, formatter = c, f
}
