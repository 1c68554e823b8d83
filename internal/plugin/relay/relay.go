// Package relay implements relay-based login: sign-in requests are forwarded
// over a websocket relay to a remote wallet, which answers with the approved
// accounts.
package relay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/near"
	"github.com/mrz1836/nearconnect/internal/plugin"
)

// Name identifies the plugin.
const Name = "relay"

// Plugin signs in through a relay Client.
type Plugin struct {
	client *Client
	logger *config.Logger

	mu     sync.Mutex
	proofs map[near.Network]json.RawMessage
}

// Compile-time interface check
var _ plugin.Plugin = (*Plugin)(nil)

// New creates a relay plugin.
func New(client *Client, logger *config.Logger) *Plugin {
	return &Plugin{
		client: client,
		logger: logger,
		proofs: make(map[near.Network]json.RawMessage),
	}
}

// Name returns "relay".
func (p *Plugin) Name() string { return Name }

// SignIn asks the remote wallet to approve a sign-in. Transport failures
// reject because the wallet may already be showing the request.
func (p *Plugin) SignIn(ctx context.Context, params plugin.Params) plugin.Result {
	reply, err := p.client.Do(ctx, MethodSignIn, params.Network)
	if err != nil {
		return plugin.Rejected(err)
	}

	res := classify(reply)
	if res.Outcome() == plugin.OutcomeHandled {
		p.mu.Lock()
		if len(reply.Proof) > 0 {
			p.proofs[params.Network] = reply.Proof
		} else {
			delete(p.proofs, params.Network)
		}
		p.mu.Unlock()
	}
	return res
}

// GetAccounts asks the relay which accounts are still approved. An
// unreachable relay falls through so other plugins can answer.
func (p *Plugin) GetAccounts(ctx context.Context, params plugin.Params) plugin.Result {
	reply, err := p.client.Do(ctx, MethodGetAccounts, params.Network)
	if err != nil {
		p.logger.Info("relay: unreachable, deferring getAccounts: %v", err)
		return plugin.Fallthrough()
	}
	return classify(reply)
}

// GetSignature returns the proof from the last sign-in on the network, if
// the relay sent one.
func (p *Plugin) GetSignature(_ context.Context, params plugin.Params) plugin.SignatureResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	proof, ok := p.proofs[params.Network]
	if !ok {
		return plugin.FallthroughProof()
	}
	return plugin.HandledProof(proof)
}

func classify(reply *Reply) plugin.Result {
	if reply.Error == nil {
		return plugin.Handled(reply.Accounts...)
	}
	if reply.Error.Code == CodeUnsupported {
		return plugin.Fallthrough()
	}
	return plugin.Rejected(reply.Error)
}
