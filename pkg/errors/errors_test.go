package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

var (
	errInner = errors.New("inner")
	errPlain = errors.New("plain error")
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"success", nil, connerr.ExitSuccess},
		{"general error", connerr.ErrGeneral, connerr.ExitGeneral},
		{"input error", connerr.ErrInvalidInput, connerr.ExitInput},
		{"rejected", connerr.ErrSignInRejected, connerr.ExitAuth},
		{"no plugin", connerr.ErrNoPluginHandled, connerr.ExitNotFound},
		{"already connecting", connerr.ErrAlreadyConnecting, connerr.ExitBusy},
		{"invalid network", connerr.ErrInvalidNetwork, connerr.ExitInput},
		{"plain error", errPlain, connerr.ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, connerr.ExitCode(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("preserves identity", func(t *testing.T) {
		t.Parallel()
		wrapped := connerr.Wrap(connerr.ErrNoPluginHandled, "signIn on %s", "testnet")
		require.ErrorIs(t, wrapped, connerr.ErrNoPluginHandled)
		assert.Contains(t, wrapped.Error(), "signIn on testnet")
		assert.Equal(t, connerr.ExitNotFound, connerr.ExitCode(wrapped))
	})

	t.Run("nil input", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, connerr.Wrap(nil, "context"))
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		wrapped := connerr.Wrap(errPlain, "context")
		var ce *connerr.ConnectError
		require.ErrorAs(t, wrapped, &ce)
		assert.Equal(t, "GENERAL_ERROR", ce.Code)
		assert.Equal(t, "context", ce.Message)
		require.ErrorIs(t, wrapped, errPlain)
	})

	t.Run("field preservation", func(t *testing.T) {
		t.Parallel()
		original := connerr.WithDetails(connerr.ErrRelay, map[string]string{"url": "wss://relay"})
		original = connerr.WithSuggestion(original, "check the relay url")
		wrapped := connerr.Wrap(original, "dialing")

		var ce *connerr.ConnectError
		require.ErrorAs(t, wrapped, &ce)
		assert.Equal(t, "RELAY_ERROR", ce.Code)
		assert.Equal(t, map[string]string{"url": "wss://relay"}, ce.Details)
		assert.Equal(t, "check the relay url", ce.Suggestion)
	})
}

func TestWithCause(t *testing.T) {
	t.Parallel()
	err := connerr.WithCause(connerr.ErrSignInRejected, errInner)

	require.ErrorIs(t, err, connerr.ErrSignInRejected)
	require.ErrorIs(t, err, errInner)
	assert.Equal(t, "sign-in was rejected or cancelled: inner", err.Error())
	assert.NotErrorIs(t, err, connerr.ErrNoPluginHandled)
}

func TestConnectError_Error(t *testing.T) {
	t.Parallel()

	t.Run("message only", func(t *testing.T) {
		t.Parallel()
		err := &connerr.ConnectError{Code: "TEST", Message: "something failed"}
		assert.Equal(t, "something failed", err.Error())
	})

	t.Run("with details sorted", func(t *testing.T) {
		t.Parallel()
		err := &connerr.ConnectError{
			Code:    "TEST",
			Message: "failed",
			Details: map[string]string{"beta": "2", "alpha": "1"},
		}
		assert.Equal(t, "failed (alpha: 1) (beta: 2)", err.Error())
	})

	t.Run("with details and cause", func(t *testing.T) {
		t.Parallel()
		err := &connerr.ConnectError{
			Code:    "TEST",
			Message: "outer",
			Details: map[string]string{"key": "val"},
			Cause:   errInner,
		}
		assert.Equal(t, "outer (key: val): inner", err.Error())
	})
}

func TestConnectError_Is(t *testing.T) {
	t.Parallel()
	a := &connerr.ConnectError{Code: "SAME_CODE", Message: "a"}
	b := &connerr.ConnectError{Code: "SAME_CODE", Message: "b"}
	c := &connerr.ConnectError{Code: "OTHER", Message: "c"}

	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
	assert.False(t, a.Is(errPlain))
}

func TestCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ALREADY_CONNECTING", connerr.Code(connerr.ErrAlreadyConnecting))
	assert.Equal(t, "GENERAL_ERROR", connerr.Code(errPlain))
	assert.Equal(t, "GENERAL_ERROR", connerr.Code(nil))
}

func TestWithSuggestion_plainError(t *testing.T) {
	t.Parallel()
	result := connerr.WithSuggestion(errPlain, "try this")
	var ce *connerr.ConnectError
	require.ErrorAs(t, result, &ce)
	assert.Equal(t, "plain error", ce.Message)
	assert.Equal(t, "try this", ce.Suggestion)
	assert.NoError(t, connerr.WithSuggestion(nil, "x"))
	assert.NoError(t, connerr.WithDetails(nil, nil))
}
