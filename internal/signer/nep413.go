package signer

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"

	"github.com/mrz1836/nearconnect/internal/near"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// nep413Tag prefixes the payload so signatures cannot be replayed as transactions.
const nep413Tag uint32 = 1<<31 + 413

// PayloadHash returns sha256(tag || borsh(payload)), the bytes that get signed.
func PayloadHash(req MessageRequest) [sha256.Size]byte {
	return sha256.Sum256(encodePayload(req))
}

// encodePayload borsh-encodes the tag and payload fields in declaration order:
// u32 tag, string message, [32]u8 nonce, string recipient, Option<string> callbackUrl.
func encodePayload(req MessageRequest) []byte {
	buf := make([]byte, 0, 4+4+len(req.Message)+NonceSize+4+len(req.Recipient)+1+4+len(req.CallbackURL))
	buf = binary.LittleEndian.AppendUint32(buf, nep413Tag)
	buf = appendString(buf, req.Message)
	buf = append(buf, req.Nonce[:]...)
	buf = appendString(buf, req.Recipient)
	if req.CallbackURL == "" {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = appendString(buf, req.CallbackURL)
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s))) //nolint:gosec // G115: message lengths are far below 4GiB
	return append(buf, s...)
}

// Sign produces a SignedMessage for req with key.
func Sign(accountID string, key ed25519.PrivateKey, req MessageRequest) (*SignedMessage, error) {
	pub, err := near.NewPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}

	hash := PayloadHash(req)
	sig := ed25519.Sign(key, hash[:])

	return &SignedMessage{
		AccountID: accountID,
		PublicKey: pub.String(),
		Signature: base64.StdEncoding.EncodeToString(sig),
		Message:   req.Message,
		Recipient: req.Recipient,
		Nonce:     append([]byte(nil), req.Nonce[:]...),
	}, nil
}

// Verify checks that signed carries a valid signature over req by signed.PublicKey.
// It does not check that the key is a full-access key of the account; that
// needs an RPC lookup and is left to the caller.
func Verify(req MessageRequest, signed *SignedMessage) error {
	if signed == nil {
		return connerr.ErrSignatureInvalid
	}

	pub, err := near.ParsePublicKey(signed.PublicKey)
	if err != nil {
		return connerr.WithCause(connerr.ErrSignatureInvalid, err)
	}

	sig, err := base64.StdEncoding.DecodeString(signed.Signature)
	if err != nil {
		return connerr.WithCause(connerr.ErrSignatureInvalid, err)
	}

	hash := PayloadHash(req)
	if !ed25519.Verify(pub.Bytes(), hash[:], sig) {
		return connerr.ErrSignatureInvalid
	}
	return nil
}

// VerifyEmbedded verifies signed against the request fields it carries.
func VerifyEmbedded(signed *SignedMessage) error {
	if signed == nil {
		return connerr.ErrSignatureInvalid
	}
	req, err := signed.Request()
	if err != nil {
		return connerr.WithCause(connerr.ErrSignatureInvalid, err)
	}
	return Verify(req, signed)
}
