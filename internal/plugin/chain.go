package plugin

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/near"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// Selection is the terminal answer of a chain traversal.
type Selection struct {
	// Plugin is the name of the plugin that handled the call.
	Plugin   string
	Accounts []near.Account
}

// Chain runs plugins in registration order. The zero value is not usable;
// call NewChain.
type Chain struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *config.Logger
	metrics *metrics.Metrics
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger used for per-plugin tracing.
func WithLogger(l *config.Logger) ChainOption {
	return func(c *Chain) { c.logger = l }
}

// WithMetrics sets the metrics sink. Defaults to metrics.Global.
func WithMetrics(m *metrics.Metrics) ChainOption {
	return func(c *Chain) { c.metrics = m }
}

// NewChain creates an empty chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{metrics: metrics.Global}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.Global
	}
	return c
}

// Use appends p to the chain. Plugins registered earlier run first.
func (c *Chain) Use(p Plugin) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plugins = append(c.plugins, p)
}

// Plugins returns the registered plugin names in order.
func (c *Chain) Plugins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.plugins))
	for i, p := range c.plugins {
		names[i] = p.Name()
	}
	return names
}

// snapshot copies the plugin list so a traversal is unaffected by Use calls
// made while it runs.
func (c *Chain) snapshot() []Plugin {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Plugin(nil), c.plugins...)
}

// SignIn asks each plugin in turn to perform an interactive sign-in.
// A rejection stops the chain and is returned as ErrSignInRejected.
func (c *Chain) SignIn(ctx context.Context, params Params) (Selection, error) {
	return c.run(ctx, metrics.OpSignIn, params, func(p Plugin) Result {
		return p.SignIn(ctx, params)
	})
}

// GetAccounts asks each plugin in turn for the accounts it already holds.
func (c *Chain) GetAccounts(ctx context.Context, params Params) (Selection, error) {
	return c.run(ctx, metrics.OpGetAccounts, params, func(p Plugin) Result {
		return p.GetAccounts(ctx, params)
	})
}

func (c *Chain) run(ctx context.Context, op string, params Params, call func(Plugin) Result) (Selection, error) {
	for _, p := range c.snapshot() {
		if err := ctx.Err(); err != nil {
			return Selection{}, connerr.WithDetails(
				connerr.WithCause(connerr.ErrSignInRejected, err),
				map[string]string{"op": op},
			)
		}

		res := call(p)
		c.record(res.Outcome())
		c.logger.Debug("plugin %s %s on %s: %s", p.Name(), op, params.Network, res.Outcome())

		switch res.Outcome() {
		case OutcomeHandled:
			return Selection{Plugin: p.Name(), Accounts: res.Accounts()}, nil
		case OutcomeRejected:
			err := connerr.WithCause(connerr.ErrSignInRejected, res.Err())
			return Selection{}, connerr.WithDetails(err, map[string]string{"plugin": p.Name()})
		case OutcomeFallthrough:
		}
	}

	c.metrics.RecordChainExhausted()
	return Selection{}, connerr.Wrap(connerr.ErrNoPluginHandled, "%s on %s", op, params.Network)
}

// GetSignature returns the proof from the first plugin that handles the call.
// It returns nil when every plugin falls through or one rejects; the proof
// is optional and never blocks a connection.
func (c *Chain) GetSignature(ctx context.Context, params Params) json.RawMessage {
	for _, p := range c.snapshot() {
		if ctx.Err() != nil {
			return nil
		}

		res := p.GetSignature(ctx, params)
		c.record(res.Outcome())
		c.logger.Debug("plugin %s %s on %s: %s", p.Name(), metrics.OpGetSignature, params.Network, res.Outcome())

		switch res.Outcome() {
		case OutcomeHandled:
			return res.Proof()
		case OutcomeRejected:
			c.logger.Info("plugin %s declined signature: %v", p.Name(), res.Err())
			return nil
		case OutcomeFallthrough:
		}
	}
	return nil
}

func (c *Chain) record(o Outcome) {
	c.metrics.RecordChainStep(o == OutcomeFallthrough, o == OutcomeRejected)
}
