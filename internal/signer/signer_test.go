package signer

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nearconnect/internal/near"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testRequest(t *testing.T) MessageRequest {
	t.Helper()
	nonce, err := NewNonce()
	require.NoError(t, err)
	return MessageRequest{Message: "Test", Recipient: "test.near", Nonce: nonce}
}

func TestEncodePayload_layout(t *testing.T) {
	t.Parallel()
	var nonce [NonceSize]byte
	nonce[0] = 0xAA

	got := encodePayload(MessageRequest{Message: "hi", Recipient: "a.near", Nonce: nonce})

	var want bytes.Buffer
	_ = binary.Write(&want, binary.LittleEndian, uint32(2147484061))
	_ = binary.Write(&want, binary.LittleEndian, uint32(2))
	want.WriteString("hi")
	want.Write(nonce[:])
	_ = binary.Write(&want, binary.LittleEndian, uint32(6))
	want.WriteString("a.near")
	want.WriteByte(0)

	assert.Equal(t, want.Bytes(), got)

	withCallback := encodePayload(MessageRequest{Message: "hi", Recipient: "a.near", Nonce: nonce, CallbackURL: "x"})
	assert.Equal(t, append(want.Bytes()[:want.Len()-1], 1, 1, 0, 0, 0, 'x'), withCallback)
}

func TestSignVerify(t *testing.T) {
	t.Parallel()
	_, key, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	req := testRequest(t)
	signed, err := Sign("bob.near", key, req)
	require.NoError(t, err)

	assert.Equal(t, "bob.near", signed.AccountID)
	require.NoError(t, Verify(req, signed))
	require.NoError(t, VerifyEmbedded(signed))

	t.Run("tampered message", func(t *testing.T) {
		t.Parallel()
		tampered := req
		tampered.Message = "Other"
		require.ErrorIs(t, Verify(tampered, signed), connerr.ErrSignatureInvalid)
	})

	t.Run("tampered recipient", func(t *testing.T) {
		t.Parallel()
		tampered := req
		tampered.Recipient = "evil.near"
		require.ErrorIs(t, Verify(tampered, signed), connerr.ErrSignatureInvalid)
	})

	t.Run("bad signature encoding", func(t *testing.T) {
		t.Parallel()
		broken := *signed
		broken.Signature = "%%%"
		require.ErrorIs(t, Verify(req, &broken), connerr.ErrSignatureInvalid)
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, Verify(req, nil), connerr.ErrSignatureInvalid)
		require.ErrorIs(t, VerifyEmbedded(nil), connerr.ErrSignatureInvalid)
	})
}

func TestSignedMessage_Request(t *testing.T) {
	t.Parallel()
	s := &SignedMessage{Nonce: []byte{1, 2}}
	_, err := s.Request()
	require.Error(t, err)
	require.ErrorIs(t, VerifyEmbedded(s), connerr.ErrSignatureInvalid)
}

func TestLocalSignerFromMnemonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s1, err := NewLocalSignerFromMnemonic("bob.near", testMnemonic, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s1.Close() })

	// Extra whitespace and case are normalized.
	s2, err := NewLocalSignerFromMnemonic("bob.near", "  ABANDON "+testMnemonic[len("abandon "):], "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	a1, err := s1.Account(ctx)
	require.NoError(t, err)
	a2, err := s2.Account(ctx)
	require.NoError(t, err)
	assert.Equal(t, a1, a2, "same phrase must derive the same key")

	_, err = near.ParsePublicKey(a1.PublicKey)
	require.NoError(t, err)

	s3, err := NewLocalSignerFromMnemonic("bob.near", testMnemonic, "extra passphrase")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s3.Close() })
	a3, err := s3.Account(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a1.PublicKey, a3.PublicKey)
}

func TestLocalSigner_invalidInputs(t *testing.T) {
	t.Parallel()
	_, err := NewLocalSignerFromMnemonic("bob.near", "not a real phrase", "")
	require.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = NewLocalSigner("bob.near", []byte("short"))
	require.Error(t, err)

	_, err = NewLocalSigner("Not Valid", bytes.Repeat([]byte{1}, ed25519.SeedSize))
	require.ErrorIs(t, err, connerr.ErrInvalidAccount)
}

func TestLocalSigner_implicitAccount(t *testing.T) {
	t.Parallel()
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	s, err := NewLocalSigner("", seed)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	acct, err := s.Account(context.Background())
	require.NoError(t, err)

	pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
	assert.Equal(t, hex.EncodeToString(pub), acct.AccountID)
}

func TestLocalSigner_SignMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := NewLocalSignerFromMnemonic("alice.testnet", testMnemonic, "")
	require.NoError(t, err)

	req := testRequest(t)
	signed, err := s.SignMessage(ctx, req)
	require.NoError(t, err)
	require.NoError(t, Verify(req, signed))
	assert.Equal(t, "alice.testnet", signed.AccountID)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, s.Locked())

	_, err = s.SignMessage(ctx, req)
	require.ErrorIs(t, err, ErrSignerClosed)
	_, err = s.Account(ctx)
	require.ErrorIs(t, err, ErrSignerClosed)
}

func TestLocalSigner_approval(t *testing.T) {
	t.Parallel()
	seed := bytes.Repeat([]byte{3}, ed25519.SeedSize)
	var asked []string
	s, err := NewLocalSigner("bob.near", seed, WithApproval(func(req MessageRequest) bool {
		asked = append(asked, req.Recipient)
		return req.Recipient != "evil.near"
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.SignMessage(context.Background(), MessageRequest{Recipient: "evil.near"})
	require.ErrorIs(t, err, ErrUserRejected)

	_, err = s.SignMessage(context.Background(), MessageRequest{Recipient: "good.near"})
	require.NoError(t, err)
	assert.Equal(t, []string{"evil.near", "good.near"}, asked)
}

func TestLocalSigner_canceledContext(t *testing.T) {
	t.Parallel()
	s, err := NewLocalSigner("bob.near", bytes.Repeat([]byte{5}, ed25519.SeedSize))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SignMessage(ctx, MessageRequest{})
	require.ErrorIs(t, err, context.Canceled)
}
