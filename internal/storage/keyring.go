package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the keychain service name for nearconnect entries.
const KeyringService = "nearconnect"

// Keyring defines the interface for secure key storage.
// This abstraction allows for testing with mock implementations.
type Keyring interface {
	// Set stores a secret in the keyring.
	Set(service, user, password string) error

	// Get retrieves a secret from the keyring.
	Get(service, user string) (string, error)

	// Delete removes a secret from the keyring.
	Delete(service, user string) error
}

// OSKeyring implements the Keyring interface using the OS keychain.
type OSKeyring struct{}

// NewOSKeyring creates a new OS keyring wrapper.
func NewOSKeyring() *OSKeyring {
	return &OSKeyring{}
}

// Set stores a secret in the OS keyring.
func (k *OSKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Get retrieves a secret from the OS keyring.
func (k *OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret from the OS keyring.
func (k *OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// Compile-time interface check
var _ KV = (*KeyringKV)(nil)

// KeyringKV stores values in a Keyring under a single service name.
// Values are base64 encoded because keychains hold strings.
type KeyringKV struct {
	keyring Keyring
	service string
}

// NewKeyringKV creates a keychain-backed store. A nil keyring uses the OS keychain.
func NewKeyringKV(kr Keyring, service string) *KeyringKV {
	if kr == nil {
		kr = NewOSKeyring()
	}
	if service == "" {
		service = KeyringService
	}
	return &KeyringKV{keyring: kr, service: service}
}

// Get reads and decodes the keychain entry for key.
func (k *KeyringKV) Get(_ context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	encoded, err := k.keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading keyring entry: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding keyring entry: %w", err)
	}
	return data, nil
}

// Set encodes and stores value.
func (k *KeyringKV) Set(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := k.keyring.Set(k.service, key, base64.StdEncoding.EncodeToString(value)); err != nil {
		return fmt.Errorf("storing keyring entry: %w", err)
	}
	return nil
}

// Delete removes the entry; a missing entry is not an error.
func (k *KeyringKV) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := k.keyring.Delete(k.service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("removing keyring entry: %w", err)
	}
	return nil
}

// Probe reports whether the keyring accepts a set/get/delete round trip.
func (k *KeyringKV) Probe() bool {
	const (
		testUser  = "probe"
		testValue = "test"
	)
	service := k.service + "-probe"

	if err := k.keyring.Set(service, testUser, testValue); err != nil {
		return false
	}

	val, err := k.keyring.Get(service, testUser)
	if err != nil || val != testValue {
		_ = k.keyring.Delete(service, testUser)
		return false
	}

	return k.keyring.Delete(service, testUser) == nil
}
