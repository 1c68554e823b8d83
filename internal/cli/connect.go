package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/output"
	"github.com/mrz1836/nearconnect/internal/session"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// defaultConnectTimeout bounds a whole sign-in traversal.
const defaultConnectTimeout = 5 * time.Minute

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	connectTimeout   time.Duration
	disconnectForget bool
)

// connectCmd signs in through the plugin chain.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:     "connect",
	Short:   "Sign in to a wallet",
	GroupID: "session",
	Long: `Run sign-in through the configured plugins, in order, and keep the
resulting session. The first plugin that handles the request wins; a plugin
that rejects it stops the chain.

If a session is already active on the current network it is returned
unchanged.

Example:
  nearconnect connect
  nearconnect connect --network testnet -o json`,
	RunE: runConnect,
}

// disconnectCmd ends the active session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var disconnectCmd = &cobra.Command{
	Use:     "disconnect",
	Short:   "Sign out and forget the stored session",
	GroupID: "session",
	Long: `Clear the active session and its stored record. Disconnecting when no
session is active on the current network does nothing.

With --forget, sign-in state kept by plugins (such as the stored signed
message) is removed too, so the next run cannot restore the session.`,
	RunE: runDisconnect,
}

// statusCmd shows the session state.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the current session",
	GroupID: "session",
	RunE:    runStatus,
}

// signatureCmd prints the proof attached to the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var signatureCmd = &cobra.Command{
	Use:     "signature",
	Short:   "Print the sign-in proof of the current session",
	GroupID: "session",
	Long: `Ask the plugins for the signature attached to the current session.
Prints nothing when no plugin has one.`,
	RunE: runSignature,
}

// sessionView is the printable form of the session state.
type sessionView struct {
	State       string          `json:"state"`
	Network     string          `json:"network"`
	AccountID   string          `json:"accountId,omitempty"`
	PublicKey   string          `json:"publicKey,omitempty"`
	ConnectedAt string          `json:"connectedAt,omitempty"`
	Proof       json.RawMessage `json:"proof,omitempty"`
}

func newSessionView(mgr *session.Manager, s *session.Session) sessionView {
	v := sessionView{
		State:   mgr.State().String(),
		Network: mgr.Network().String(),
	}
	if s != nil {
		v.AccountID = s.AccountID
		v.PublicKey = s.PublicKey
		v.ConnectedAt = s.CreatedAt.UTC().Format(time.RFC3339)
		v.Proof = s.Proof
	}
	return v
}

func (v sessionView) render(w io.Writer) error {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("state", v.State)
	t.AddRow("network", v.Network)
	if v.AccountID != "" {
		t.AddRow("account", v.AccountID)
		t.AddRow("public key", v.PublicKey)
		t.AddRow("connected", v.ConnectedAt)
	}
	if len(v.Proof) > 0 {
		t.AddRow("proof", "yes")
	}
	return t.Render(w)
}

// requireApp returns the command context or an error when the command was
// run without one.
func requireApp(cmd *cobra.Command) (*CommandContext, error) {
	cc := GetCmdContext(cmd)
	if cc == nil || cc.Manager == nil {
		return nil, connerr.Wrap(connerr.ErrGeneral, "session manager is not initialized")
	}
	return cc, nil
}

func runConnect(cmd *cobra.Command, _ []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, connectTimeout)
	defer cancel()

	s, err := cc.Manager.Connect(ctx)
	if err != nil {
		return err
	}

	v := newSessionView(cc.Manager, s)
	return cc.Fmt.Emit(v, func(w io.Writer) error {
		out(w, "Connected %s on %s\n", v.AccountID, v.Network)
		return nil
	})
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}

	prev := cc.Manager.Session()
	cc.Manager.Disconnect(cmd.Context())

	if disconnectForget {
		if err := cc.Forget(cmd.Context()); err != nil {
			return err
		}
	}

	msg := "No active session"
	if prev != nil {
		msg = "Disconnected " + prev.AccountID
	}
	return output.FormatSuccess(cc.Fmt.Writer(), msg, cc.Fmt.Format())
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}

	v := newSessionView(cc.Manager, cc.Manager.Session())
	return cc.Fmt.Emit(v, v.render)
}

func runSignature(cmd *cobra.Command, _ []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}
	if cc.Manager.Session() == nil {
		return connerr.WithSuggestion(connerr.ErrNotConnected, "run \"nearconnect connect\" first")
	}

	ctx, cancel := contextWithTimeout(cmd, connectTimeout)
	defer cancel()

	proof := cc.Manager.Signature(ctx)
	if len(proof) == 0 {
		return cc.Fmt.Emit(json.RawMessage("null"), func(w io.Writer) error {
			outln(w, "No signature available")
			return nil
		})
	}
	return cc.Fmt.Emit(proof, func(w io.Writer) error {
		outln(w, string(proof))
		return nil
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", defaultConnectTimeout, "maximum time to wait for sign-in")
	disconnectCmd.Flags().BoolVar(&disconnectForget, "forget", false, "also remove sign-in state kept by plugins")
	signatureCmd.Flags().DurationVar(&connectTimeout, "timeout", defaultConnectTimeout, "maximum time to wait for plugins")

	rootCmd.AddCommand(connectCmd, disconnectCmd, statusCmd, signatureCmd)
}
