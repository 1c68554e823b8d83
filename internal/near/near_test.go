package near

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

func TestParseNetwork(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    Network
		wantErr bool
	}{
		{"mainnet", Mainnet, false},
		{"TESTNET", Testnet, false},
		{"  testnet ", Testnet, false},
		{"betanet", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := ParseNetwork(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, connerr.ErrInvalidNetwork)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNetwork_suggestion(t *testing.T) {
	t.Parallel()
	_, err := ParseNetwork("testnt")
	require.Error(t, err)

	var ce *connerr.ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "did you mean 'testnet'?", ce.Suggestion)
	assert.Equal(t, "testnt", ce.Details["network"])
}

func TestSuggestNetwork(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Mainnet, SuggestNetwork("mainet"))
	assert.Equal(t, Testnet, SuggestNetwork("tesnet"))
	assert.Equal(t, Network(""), SuggestNetwork("completely-different"))
	assert.Equal(t, Network(""), SuggestNetwork(""))
}

func TestInferNetwork(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Testnet, InferNetwork("alice.testnet"))
	assert.Equal(t, Mainnet, InferNetwork("bob.near"))
	assert.Equal(t, Mainnet, InferNetwork(strings.Repeat("a", 64)))
}

func TestValidateAccountID(t *testing.T) {
	t.Parallel()
	valid := []string{
		"bob.near",
		"alice.testnet",
		"app_1.user-2.near",
		"ab",
		strings.Repeat("f", 64),
	}
	for _, id := range valid {
		assert.NoError(t, ValidateAccountID(id), id)
	}

	invalid := []string{
		"a",
		"Bob.near",
		"bob..near",
		"-bob.near",
		"bob.near.",
		"bob__near",
		"bob near",
		strings.Repeat("a", 65),
	}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidateAccountID(id), connerr.ErrInvalidAccount, id)
	}
}

func TestPublicKey_roundTrip(t *testing.T) {
	t.Parallel()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	pk, err := NewPublicKey(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pk.String(), "ed25519:"))

	parsed, err := ParsePublicKey(pk.String())
	require.NoError(t, err)
	assert.Equal(t, pub, parsed.Bytes())

	bare, err := ParsePublicKey(strings.TrimPrefix(pk.String(), "ed25519:"))
	require.NoError(t, err)
	assert.Equal(t, pk.String(), bare.String())
}

func TestParsePublicKey_invalid(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"secp256k1:abc", "ed25519:0OIl", "ed25519:abc", ""} {
		_, err := ParsePublicKey(s)
		assert.ErrorIs(t, err, connerr.ErrInvalidPublicKey, s)
	}
}

func TestAccount_EqualAndValidate(t *testing.T) {
	t.Parallel()
	a := Account{AccountID: "bob.near", PublicKey: "ed25519:xyz"}
	assert.True(t, a.Equal(Account{AccountID: "bob.near", PublicKey: "ed25519:xyz"}))
	assert.False(t, a.Equal(Account{AccountID: "bob.near", PublicKey: "ed25519:abc"}))

	require.NoError(t, Account{AccountID: "bob.near"}.Validate())
	require.ErrorIs(t, Account{AccountID: "B"}.Validate(), connerr.ErrInvalidAccount)
}
