package signer

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"

	"github.com/mrz1836/nearconnect/internal/near"
)

// ErrInvalidMnemonic indicates the phrase failed BIP39 validation.
var ErrInvalidMnemonic = errors.New("invalid mnemonic phrase")

// Compile-time interface check
var _ Signer = (*LocalSigner)(nil)

// LocalSigner signs with an in-process ed25519 key.
// The private key is memory-locked where the platform allows and zeroed by Close.
type LocalSigner struct {
	mu        sync.RWMutex
	accountID string
	key       ed25519.PrivateKey
	locked    bool
	approve   func(MessageRequest) bool
}

// LocalOption configures a LocalSigner.
type LocalOption func(*LocalSigner)

// WithApproval installs a hook asked before every signature. Returning false
// makes SignMessage fail with ErrUserRejected.
func WithApproval(fn func(MessageRequest) bool) LocalOption {
	return func(s *LocalSigner) {
		s.approve = fn
	}
}

// NewLocalSigner creates a signer from a 32-byte ed25519 seed. An empty
// accountID selects the implicit account (hex of the public key).
func NewLocalSigner(accountID string, seed []byte, opts ...LocalOption) (*LocalSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("ed25519 seed must be 32 bytes")
	}

	key := ed25519.NewKeyFromSeed(seed)
	if accountID == "" {
		accountID = hex.EncodeToString(key.Public().(ed25519.PublicKey))
	}
	if err := near.ValidateAccountID(accountID); err != nil {
		zero(key)
		return nil, err
	}

	s := &LocalSigner{
		accountID: accountID,
		key:       key,
		locked:    mlock(key),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewLocalSignerFromMnemonic derives the key from a BIP39 phrase: the first
// 32 bytes of the BIP39 seed become the ed25519 seed.
func NewLocalSignerFromMnemonic(accountID, mnemonic, passphrase string, opts ...LocalOption) (*LocalSigner, error) {
	mnemonic = strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(mnemonic, passphrase)
	defer zero(seed)

	return NewLocalSigner(accountID, seed[:ed25519.SeedSize], opts...)
}

// Account returns the signer's account.
func (s *LocalSigner) Account(_ context.Context) (near.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return near.Account{}, ErrSignerClosed
	}

	pub, err := near.NewPublicKey(s.key.Public().(ed25519.PublicKey))
	if err != nil {
		return near.Account{}, err
	}
	return near.Account{AccountID: s.accountID, PublicKey: pub.String()}, nil
}

// SignMessage signs req after the optional approval hook agrees.
func (s *LocalSigner) SignMessage(ctx context.Context, req MessageRequest) (*SignedMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, ErrSignerClosed
	}
	if s.approve != nil && !s.approve(req) {
		return nil, ErrUserRejected
	}
	return Sign(s.accountID, s.key, req)
}

// Locked reports whether the key memory is locked against swapping.
func (s *LocalSigner) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked
}

// Close zeroes and unlocks the key. The signer is unusable afterwards.
func (s *LocalSigner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return nil
	}
	zero(s.key)
	if s.locked {
		munlock(s.key)
	}
	s.key = nil
	s.locked = false
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
