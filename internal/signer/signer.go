// Package signer signs NEP-413 off-chain messages for message-signature login.
//
// A Signer is the wallet backend the signature plugin talks to. LocalSigner
// holds an ed25519 key derived from a BIP39 mnemonic; other implementations
// (hardware wallets, remote signers) can satisfy the same interface.
package signer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mrz1836/nearconnect/internal/near"
)

// NonceSize is the length of a NEP-413 nonce.
const NonceSize = 32

// ErrUserRejected indicates the wallet owner declined to sign.
var ErrUserRejected = errors.New("user rejected the signature request")

// ErrSignerClosed indicates the signer's key material has been released.
var ErrSignerClosed = errors.New("signer is closed")

// Signer signs messages on behalf of one account.
type Signer interface {
	// Account returns the account the signer signs for.
	Account(ctx context.Context) (near.Account, error)

	// SignMessage signs req. Implementations return ErrUserRejected when the
	// owner declines.
	SignMessage(ctx context.Context, req MessageRequest) (*SignedMessage, error)
}

// MessageRequest is the NEP-413 message to sign.
type MessageRequest struct {
	Message     string
	Recipient   string
	Nonce       [NonceSize]byte
	CallbackURL string
}

// SignedMessage is the signature result persisted as the session proof.
type SignedMessage struct {
	AccountID string `json:"accountId"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	Message   string `json:"message,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Nonce     []byte `json:"nonce,omitempty"`
}

// Account returns the account view of the signed message.
func (s *SignedMessage) Account() near.Account {
	return near.Account{AccountID: s.AccountID, PublicKey: s.PublicKey}
}

// Request rebuilds the request the signature was produced for.
func (s *SignedMessage) Request() (MessageRequest, error) {
	req := MessageRequest{Message: s.Message, Recipient: s.Recipient}
	if len(s.Nonce) != NonceSize {
		return req, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(s.Nonce))
	}
	copy(req.Nonce[:], s.Nonce)
	return req, nil
}

// NewNonce returns a random nonce.
func NewNonce() ([NonceSize]byte, error) {
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, fmt.Errorf("generating nonce: %w", err)
	}
	return nonce, nil
}
