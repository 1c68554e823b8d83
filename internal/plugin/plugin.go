// Package plugin defines wallet sign-in strategies and the ordered chain that
// runs them.
//
// Each plugin answers SignIn, GetAccounts and GetSignature with a three-way
// result: handled, fallthrough (defer to the next plugin), or rejected. The
// chain walks plugins in registration order and stops at the first result
// that is not a fallthrough.
package plugin

import (
	"context"
	"encoding/json"

	"github.com/mrz1836/nearconnect/internal/near"
)

// Outcome classifies a plugin result.
type Outcome int

// Plugin outcomes.
const (
	OutcomeFallthrough Outcome = iota
	OutcomeHandled
	OutcomeRejected
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeHandled:
		return "handled"
	case OutcomeRejected:
		return "rejected"
	default:
		return "fallthrough"
	}
}

// Params are passed to every plugin operation.
type Params struct {
	Network near.Network

	// Message and Recipient describe the sign-in message for
	// signature-based strategies. Other strategies ignore them.
	Message   string
	Recipient string
}

// Result is the outcome of SignIn or GetAccounts.
type Result struct {
	outcome  Outcome
	accounts []near.Account
	err      error
}

// Handled returns a terminal result carrying accounts. Zero accounts is a
// valid handled result, distinct from Fallthrough.
func Handled(accounts ...near.Account) Result {
	return Result{outcome: OutcomeHandled, accounts: accounts}
}

// Fallthrough defers to the next plugin in the chain.
func Fallthrough() Result {
	return Result{outcome: OutcomeFallthrough}
}

// Rejected ends the chain with err, typically a denial or cancellation.
func Rejected(err error) Result {
	return Result{outcome: OutcomeRejected, err: err}
}

// Outcome returns the result classification.
func (r Result) Outcome() Outcome { return r.outcome }

// Accounts returns the handled accounts.
func (r Result) Accounts() []near.Account { return r.accounts }

// Err returns the rejection cause.
func (r Result) Err() error { return r.err }

// SignatureResult is the outcome of GetSignature.
type SignatureResult struct {
	outcome Outcome
	proof   json.RawMessage
	err     error
}

// HandledProof returns a terminal signature result. A nil proof means the
// plugin owns the session but holds no signature.
func HandledProof(proof json.RawMessage) SignatureResult {
	return SignatureResult{outcome: OutcomeHandled, proof: proof}
}

// FallthroughProof defers GetSignature to the next plugin.
func FallthroughProof() SignatureResult {
	return SignatureResult{outcome: OutcomeFallthrough}
}

// RejectedProof ends GetSignature with err.
func RejectedProof(err error) SignatureResult {
	return SignatureResult{outcome: OutcomeRejected, err: err}
}

// Outcome returns the result classification.
func (r SignatureResult) Outcome() Outcome { return r.outcome }

// Proof returns the handled proof.
func (r SignatureResult) Proof() json.RawMessage { return r.proof }

// Err returns the rejection cause.
func (r SignatureResult) Err() error { return r.err }

// Plugin is a wallet sign-in strategy.
// Plugins may keep their own durable state; the chain never rolls it back.
type Plugin interface {
	// Name identifies the plugin in logs, metrics and the CLI.
	Name() string

	// SignIn runs the plugin's handshake.
	SignIn(ctx context.Context, params Params) Result

	// GetAccounts reports the accounts the plugin currently holds.
	GetAccounts(ctx context.Context, params Params) Result

	// GetSignature returns the proof produced at sign-in.
	GetSignature(ctx context.Context, params Params) SignatureResult
}

// Funcs builds a Plugin from functions. Nil functions fall through.
type Funcs struct {
	PluginName     string
	SignInFn       func(ctx context.Context, params Params) Result
	GetAccountsFn  func(ctx context.Context, params Params) Result
	GetSignatureFn func(ctx context.Context, params Params) SignatureResult
}

// Compile-time interface check
var _ Plugin = (*Funcs)(nil)

// Name returns PluginName.
func (f *Funcs) Name() string { return f.PluginName }

// SignIn calls SignInFn.
func (f *Funcs) SignIn(ctx context.Context, params Params) Result {
	if f.SignInFn == nil {
		return Fallthrough()
	}
	return f.SignInFn(ctx, params)
}

// GetAccounts calls GetAccountsFn.
func (f *Funcs) GetAccounts(ctx context.Context, params Params) Result {
	if f.GetAccountsFn == nil {
		return Fallthrough()
	}
	return f.GetAccountsFn(ctx, params)
}

// GetSignature calls GetSignatureFn.
func (f *Funcs) GetSignature(ctx context.Context, params Params) SignatureResult {
	if f.GetSignatureFn == nil {
		return FallthroughProof()
	}
	return f.GetSignatureFn(ctx, params)
}
