// Package signature implements message-signature login: the wallet signs an
// off-chain NEP-413 message at sign-in and the signed message is kept as the
// session proof.
package signature

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/near"
	"github.com/mrz1836/nearconnect/internal/plugin"
	"github.com/mrz1836/nearconnect/internal/signer"
	"github.com/mrz1836/nearconnect/internal/storage"
)

// Name identifies the plugin.
const Name = "signature"

// SlotKey is the storage key holding the last signed message.
const SlotKey = "plugin:signedMessage"

// Default sign-in message values used when Params leave them empty.
const (
	DefaultMessage   = config.DefaultSignerMessage
	DefaultRecipient = config.DefaultSignerRecipient
)

// record is the slot layout: the signed message plus the network it was
// signed for.
type record struct {
	signer.SignedMessage

	Network near.Network `json:"network"`
}

// Plugin signs in by asking a signer for a NEP-413 signature.
type Plugin struct {
	signer signer.Signer
	kv     storage.KV
	logger *config.Logger
	nonce  func() ([signer.NonceSize]byte, error)
}

// Compile-time interface check
var _ plugin.Plugin = (*Plugin)(nil)

// Option configures a Plugin.
type Option func(*Plugin)

// WithLogger sets the logger.
func WithLogger(l *config.Logger) Option {
	return func(p *Plugin) { p.logger = l }
}

// WithNonceSource overrides nonce generation.
func WithNonceSource(fn func() ([signer.NonceSize]byte, error)) Option {
	return func(p *Plugin) { p.nonce = fn }
}

// New creates a plugin signing with s and keeping its slot in kv.
func New(s signer.Signer, kv storage.KV, opts ...Option) *Plugin {
	p := &Plugin{signer: s, kv: kv, nonce: signer.NewNonce}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns "signature".
func (p *Plugin) Name() string { return Name }

// SignIn signs a fresh message and stores it. A declined or failed
// signature rejects; the user chose this wallet, so no other plugin is tried.
func (p *Plugin) SignIn(ctx context.Context, params plugin.Params) plugin.Result {
	nonce, err := p.nonce()
	if err != nil {
		return plugin.Rejected(err)
	}

	req := signer.MessageRequest{
		Message:   params.Message,
		Recipient: params.Recipient,
		Nonce:     nonce,
	}
	if req.Message == "" {
		req.Message = DefaultMessage
	}
	if req.Recipient == "" {
		req.Recipient = DefaultRecipient
	}

	signed, err := p.signer.SignMessage(ctx, req)
	if err != nil {
		return plugin.Rejected(err)
	}
	if err := signer.Verify(req, signed); err != nil {
		return plugin.Rejected(err)
	}

	data, err := json.Marshal(record{SignedMessage: *signed, Network: params.Network})
	if err != nil {
		return plugin.Rejected(fmt.Errorf("encoding signed message: %w", err))
	}
	if err := p.kv.Set(ctx, SlotKey, data); err != nil {
		p.logger.Error("signature: storing signed message for %s: %v", signed.AccountID, err)
	}

	p.logger.Debug("signature: %s signed for %s", signed.AccountID, req.Recipient)
	return plugin.Handled(signed.Account())
}

// GetAccounts returns the account of the stored signed message. It falls
// through when nothing valid is stored for the requested network.
func (p *Plugin) GetAccounts(ctx context.Context, params plugin.Params) plugin.Result {
	rec := p.load(ctx, params.Network)
	if rec == nil {
		return plugin.Fallthrough()
	}
	return plugin.Handled(rec.Account())
}

// GetSignature returns the stored signed message.
func (p *Plugin) GetSignature(ctx context.Context, params plugin.Params) plugin.SignatureResult {
	rec := p.load(ctx, params.Network)
	if rec == nil {
		return plugin.FallthroughProof()
	}

	proof, err := json.Marshal(rec.SignedMessage)
	if err != nil {
		return plugin.FallthroughProof()
	}
	return plugin.HandledProof(proof)
}

// Forget removes the stored signed message.
func (p *Plugin) Forget(ctx context.Context) error {
	return p.kv.Delete(ctx, SlotKey)
}

func (p *Plugin) load(ctx context.Context, network near.Network) *record {
	data, err := p.kv.Get(ctx, SlotKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		p.logger.Error("signature: reading signed message: %v", err)
		return nil
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		p.logger.Error("signature: ignoring unreadable signed message: %v", err)
		return nil
	}
	if rec.Network != network {
		return nil
	}
	if err := signer.VerifyEmbedded(&rec.SignedMessage); err != nil {
		p.logger.Error("signature: ignoring signed message for %s: %v", rec.AccountID, err)
		return nil
	}
	return &rec
}
