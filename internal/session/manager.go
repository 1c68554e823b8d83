package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/event"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/near"
	"github.com/mrz1836/nearconnect/internal/plugin"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// connectKey is the singleflight key shared by every Connect call; at most one
// chain traversal runs per manager.
const connectKey = "connect"

// Manager owns the active session and is the single entry point for
// connecting, disconnecting and switching networks.
type Manager struct {
	mu      sync.Mutex
	state   State
	active  *Session
	network near.Network

	chain   *plugin.Chain
	bus     *event.Bus
	store   *Store
	group   singleflight.Group
	policy  string
	message string
	recip   string

	logger  *config.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithNetwork sets the initial network selection. Defaults to mainnet.
func WithNetwork(n near.Network) Option {
	return func(m *Manager) { m.network = n }
}

// WithConnectPolicy selects how Connect behaves while another Connect is in
// flight: config.ConnectPolicyWait shares its outcome and
// config.ConnectPolicyFail returns ErrAlreadyConnecting.
func WithConnectPolicy(policy string) Option {
	return func(m *Manager) { m.policy = policy }
}

// WithSignInMessage sets the message and recipient passed to plugins on sign-in.
func WithSignInMessage(message, recipient string) Option {
	return func(m *Manager) {
		m.message = message
		m.recip = recipient
	}
}

// WithChain replaces the plugin chain.
func WithChain(c *plugin.Chain) Option {
	return func(m *Manager) { m.chain = c }
}

// WithBus replaces the event bus.
func WithBus(b *event.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l *config.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMetrics sets the metrics sink. Defaults to metrics.Global.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithClock overrides the session creation clock.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a disconnected manager persisting to store.
func NewManager(store *Store, opts ...Option) *Manager {
	m := &Manager{
		state:   StateDisconnected,
		network: near.Mainnet,
		store:   store,
		policy:  config.ConnectPolicyWait,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = metrics.Global
	}
	if m.chain == nil {
		m.chain = plugin.NewChain(plugin.WithLogger(m.logger), plugin.WithMetrics(m.metrics))
	}
	if m.bus == nil {
		m.bus = event.NewBus(event.WithLogger(m.logger), event.WithMetrics(m.metrics))
	}
	return m
}

// Use appends a plugin to the chain.
func (m *Manager) Use(p plugin.Plugin) {
	m.chain.Use(p)
}

// On subscribes to a manager event and returns the unsubscribe function.
func (m *Manager) On(name string, h event.Handler) func() {
	return m.bus.On(name, h)
}

// Plugins returns the registered plugin names in chain order.
func (m *Manager) Plugins() []string {
	return m.chain.Plugins()
}

// visibleLocked returns the active session if it belongs to the selected
// network. Callers must hold m.mu.
func (m *Manager) visibleLocked() *Session {
	if m.active == nil || m.active.Network != m.network {
		return nil
	}
	return m.active
}

// State returns the connection state. Outside a sign-in it follows the
// visible session: Connected when one is active on the selected network,
// Disconnected otherwise (including while a session is masked).
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateConnecting {
		return StateConnecting
	}
	if m.visibleLocked() != nil {
		return StateConnected
	}
	return StateDisconnected
}

// Session returns the active session for the selected network, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visibleLocked()
}

// Network returns the selected network.
func (m *Manager) Network() near.Network {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.network
}

// Accounts returns the connected accounts on the selected network.
func (m *Manager) Accounts() []near.Account {
	s := m.Session()
	if s == nil {
		return nil
	}
	return []near.Account{s.Account()}
}

// Signature asks the chain for the proof held by the signed-in plugin.
// Returns nil when nothing is connected or no plugin holds one.
func (m *Manager) Signature(ctx context.Context) json.RawMessage {
	if m.Session() == nil {
		return nil
	}
	return m.chain.GetSignature(ctx, m.params(m.Network()))
}

func (m *Manager) params(n near.Network) plugin.Params {
	return plugin.Params{Network: n, Message: m.message, Recipient: m.recip}
}

// Connect signs in through the plugin chain unless a session is already
// active on the selected network, in which case that session is returned.
//
// While a sign-in is in flight, further calls either wait for and share its
// outcome or fail with ErrAlreadyConnecting, depending on the connect
// policy. A shared traversal runs under the context of the call that
// started it.
func (m *Manager) Connect(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if s := m.visibleLocked(); s != nil {
		m.mu.Unlock()
		return s, nil
	}
	if m.state == StateConnecting && m.policy == config.ConnectPolicyFail {
		m.mu.Unlock()
		m.metrics.RecordConnect(connerr.ErrAlreadyConnecting)
		return nil, connerr.ErrAlreadyConnecting
	}
	m.state = StateConnecting
	m.mu.Unlock()

	v, err, shared := m.group.Do(connectKey, func() (any, error) {
		return m.signIn(ctx)
	})
	if shared {
		m.logger.Debug("connect joined an in-flight sign-in")
	}
	if err != nil {
		return nil, err
	}
	s, _ := v.(*Session)
	return s, nil
}

func (m *Manager) signIn(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if s := m.visibleLocked(); s != nil {
		m.state = StateConnected
		m.mu.Unlock()
		return s, nil
	}
	m.state = StateConnecting
	network := m.network
	m.mu.Unlock()

	params := m.params(network)
	s, sel, err := m.runSignIn(ctx, params)
	m.metrics.RecordConnect(err)
	if err != nil {
		m.mu.Lock()
		m.state = StateDisconnected
		if m.active != nil {
			// A session masked by a network switch survives the failed attempt.
			m.state = StateConnected
		}
		m.mu.Unlock()
		m.logger.Error("connect on %s failed: %v", network, err)
		return nil, err
	}

	if err := m.store.Save(ctx, s); err != nil {
		m.logger.Error("persisting session for %s: %v", s.AccountID, err)
	}

	m.mu.Lock()
	m.active = s
	m.state = StateConnected
	m.mu.Unlock()

	m.metrics.RecordSignIn()
	m.logger.Info("signed in %s on %s via %s", s.AccountID, network, sel.Plugin)
	m.bus.Emit(ctx, event.SignIn, event.SignInPayload{Accounts: sel.Accounts})
	return s, nil
}

func (m *Manager) runSignIn(ctx context.Context, params plugin.Params) (*Session, plugin.Selection, error) {
	sel, err := m.chain.SignIn(ctx, params)
	if err != nil {
		return nil, sel, err
	}
	if len(sel.Accounts) == 0 {
		return nil, sel, connerr.WithDetails(connerr.ErrNoAccounts, map[string]string{"plugin": sel.Plugin})
	}

	first := sel.Accounts[0]
	return &Session{
		AccountID: first.AccountID,
		PublicKey: first.PublicKey,
		Network:   params.Network,
		Proof:     m.chain.GetSignature(ctx, params),
		CreatedAt: m.now().UTC(),
	}, sel, nil
}

// Disconnect signs out the session active on the selected network, clears
// the store and emits SignOut. It does nothing when no session is visible
// and never fails; store errors are logged.
func (m *Manager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	s := m.visibleLocked()
	if s == nil {
		m.mu.Unlock()
		return
	}
	m.active = nil
	m.state = StateDisconnected
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("clearing session for %s: %v", s.AccountID, err)
	}

	m.metrics.RecordSignOut()
	m.logger.Info("signed out %s on %s", s.AccountID, s.Network)
	m.bus.Emit(ctx, event.SignOut, nil)
}

// SwitchNetwork changes the network selection. A session bound to another
// network stays in memory and in the store but is hidden until the selection
// returns to its network. Switching to the current selection does nothing.
func (m *Manager) SwitchNetwork(ctx context.Context, n near.Network) error {
	n, err := near.ParseNetwork(string(n))
	if err != nil {
		return err
	}

	m.mu.Lock()
	from := m.network
	if from == n {
		m.mu.Unlock()
		return nil
	}
	m.network = n
	m.mu.Unlock()

	m.metrics.RecordNetworkSwitch()
	m.logger.Info("network switched from %s to %s", from, n)
	m.bus.Emit(ctx, event.NetworkChanged, event.NetworkChangedPayload{From: from, To: n})
	return nil
}

// RestoreSession reloads the persisted session at startup and re-activates it
// when the plugin chain still reports the same account. It never fails:
//   - nothing stored, or stored for another network: nil
//   - chain reports the stored account first: session activated, no event
//   - chain reports another account, none, or nobody handles: record removed
//   - chain rejects or the store is unreadable: record kept, nil
func (m *Manager) RestoreSession(ctx context.Context) *Session {
	stored, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Error("restore: %v", err)
		return nil
	}
	if stored == nil {
		return nil
	}

	network := m.Network()
	if stored.Network != network {
		m.logger.Debug("restore: stored session is for %s, selected %s", stored.Network, network)
		return nil
	}

	sel, err := m.chain.GetAccounts(ctx, m.params(network))
	switch {
	case connerr.Is(err, connerr.ErrNoPluginHandled):
		m.drop(ctx, stored, "no plugin recognizes it")
		return nil
	case err != nil:
		m.logger.Error("restore %s: %v", stored.AccountID, err)
		return nil
	case len(sel.Accounts) == 0:
		m.drop(ctx, stored, "plugin "+sel.Plugin+" reports no accounts")
		return nil
	case !sel.Accounts[0].Equal(stored.Account()):
		m.drop(ctx, stored, "plugin "+sel.Plugin+" reports "+sel.Accounts[0].AccountID)
		return nil
	}

	m.mu.Lock()
	if m.network != stored.Network || m.state == StateConnecting || m.visibleLocked() != nil {
		current := m.visibleLocked()
		m.mu.Unlock()
		return current
	}
	m.active = stored
	m.state = StateConnected
	m.mu.Unlock()

	m.metrics.RecordRestore(true)
	m.logger.Info("restored %s on %s", stored.AccountID, network)
	return stored
}

func (m *Manager) drop(ctx context.Context, s *Session, reason string) {
	m.metrics.RecordRestore(false)
	m.logger.Info("restore: dropping %s: %s", s.AccountID, reason)
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("restore: clearing %s: %v", s.AccountID, err)
	}
}
