// Package storage provides the durable key/value backends behind the session
// store and plugin-local state: files, the OS keychain, Redis and memory.
package storage

import (
	"context"
	"errors"
	"regexp"
)

// ErrNotFound indicates no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// ErrInvalidKey indicates a key that cannot be stored safely.
var ErrInvalidKey = errors.New("invalid storage key")

// keyRegex limits keys to characters safe in file names, keychain entries and Redis.
var keyRegex = regexp.MustCompile(`^[a-zA-Z0-9:._-]{1,128}$`)

// KV is a minimal durable key/value store.
// Implementations must be safe for concurrent use; the last writer wins.
type KV interface {
	// Get returns the stored value or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ValidateKey checks that key is usable by every backend.
func ValidateKey(key string) error {
	if !keyRegex.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
