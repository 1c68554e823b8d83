package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"filippo.io/age"
)

// ErrDecrypt indicates a stored value could not be decrypted with the passphrase.
var ErrDecrypt = errors.New("decrypting stored value")

// Compile-time interface check
var _ KV = (*Encrypted)(nil)

// Encrypted wraps a KV and encrypts values at rest with an age scrypt passphrase.
type Encrypted struct {
	inner      KV
	passphrase string
	workFactor int
}

// NewEncrypted wraps inner. Values written by other passphrases fail with ErrDecrypt.
func NewEncrypted(inner KV, passphrase string) *Encrypted {
	return &Encrypted{inner: inner, passphrase: passphrase}
}

// SetWorkFactor overrides the scrypt work factor (log2 N). Lower values are
// only appropriate for tests.
func (e *Encrypted) SetWorkFactor(logN int) {
	e.workFactor = logN
}

// Get decrypts the stored value.
func (e *Encrypted) Get(ctx context.Context, key string) ([]byte, error) {
	ciphertext, err := e.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	identity, err := age.NewScryptIdentity(e.passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	if e.workFactor > 0 {
		identity.SetMaxWorkFactor(e.workFactor)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, errors.Join(ErrDecrypt, err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrDecrypt, err)
	}
	return plaintext, nil
}

// Set encrypts value before storing it.
func (e *Encrypted) Set(ctx context.Context, key string, value []byte) error {
	recipient, err := age.NewScryptRecipient(e.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	if e.workFactor > 0 {
		recipient.SetWorkFactor(e.workFactor)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return fmt.Errorf("initializing encryption: %w", err)
	}
	if _, err := w.Write(value); err != nil {
		return fmt.Errorf("writing encrypted data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return e.inner.Set(ctx, key, buf.Bytes())
}

// Delete removes the key from the wrapped store.
func (e *Encrypted) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}
