package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nearconnect/internal/output"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

var errPlain = errors.New("plain failure")

type status struct {
	Account string `json:"account"`
}

func (s status) String() string { return "account " + s.Account }

func TestFormatter_EmitJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	f := output.NewFormatter(output.FormatJSON, &buf)

	textCalled := false
	require.NoError(t, f.Emit(status{Account: "bob.near"}, func(io.Writer) error {
		textCalled = true
		return nil
	}))

	assert.False(t, textCalled)
	assert.JSONEq(t, `{"account":"bob.near"}`, buf.String())
	assert.True(t, f.IsJSON())
}

func TestFormatter_EmitText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    any
		text func(io.Writer) error
		want string
	}{
		{"renderer", status{Account: "bob.near"}, func(w io.Writer) error {
			_, err := io.WriteString(w, "custom\n")
			return err
		}, "custom\n"},
		{"stringer", status{Account: "bob.near"}, nil, "account bob.near\n"},
		{"string", "hello", nil, "hello\n"},
		{"other", 42, nil, "42\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			f := output.NewFormatter(output.FormatText, &buf)
			require.NoError(t, f.Emit(tt.v, tt.text))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, output.FormatAuto))
	assert.Equal(t, output.FormatJSON, output.DetectFormat(&buf, ""))
	assert.Equal(t, output.FormatText, output.DetectFormat(&buf, output.FormatText))
	assert.Equal(t, output.FormatJSON, output.NewFormatter(output.FormatAuto, &buf).Format())
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected output.Format
	}{
		{"json", output.FormatJSON},
		{"JSON", output.FormatJSON},
		{" text ", output.FormatText},
		{"auto", output.FormatAuto},
		{"", output.FormatAuto},
		{"yaml", output.FormatAuto},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, output.ParseFormat(tt.input))
		})
	}
}

func TestFormatError_JSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer

	err := connerr.WithDetails(connerr.WithCause(connerr.ErrSignInRejected, errPlain), map[string]string{"plugin": "relay"})
	err = connerr.WithSuggestion(err, "approve the request in your wallet")
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var out output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "SIGN_IN_REJECTED", out.Error.Code)
	assert.Equal(t, "relay", out.Error.Details["plugin"])
	assert.Equal(t, "plain failure", out.Error.Cause)
	assert.Equal(t, "approve the request in your wallet", out.Error.Suggestion)
	assert.Equal(t, connerr.ExitAuth, out.Error.ExitCode)
}

func TestFormatError_Text(t *testing.T) {
	t.Parallel()

	t.Run("structured", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		err := connerr.WithDetails(connerr.ErrInvalidNetwork, map[string]string{"network": "tesnet", "a": "b"})
		err = connerr.WithSuggestion(err, "did you mean 'testnet'?")
		require.NoError(t, output.FormatError(&buf, err, output.FormatText))

		assert.Equal(t, "Error: invalid network\n\nDetails:\n  a: b\n  network: tesnet\n\nSuggestion: did you mean 'testnet'?\n", buf.String())
	})

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, errPlain, output.FormatText))
		assert.Equal(t, "Error: plain failure\n", buf.String())
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, nil, output.FormatText))
		assert.Empty(t, buf.String())
	})
}

func TestFormatSuccess(t *testing.T) {
	t.Parallel()
	var text, js bytes.Buffer

	require.NoError(t, output.FormatSuccess(&text, "signed out", output.FormatText))
	require.NoError(t, output.FormatSuccess(&js, "signed out", output.FormatJSON))

	assert.Equal(t, "signed out\n", text.String())
	assert.JSONEq(t, `{"status":"success","message":"signed out"}`, js.String())
}

func TestTable(t *testing.T) {
	t.Parallel()

	tbl := output.NewTable("#", "PLUGIN")
	tbl.AddRow("1", "signature")
	tbl.AddRow("2", "relay")

	assert.Equal(t, "#  PLUGIN\n-  ---------\n1  signature\n2  relay\n", tbl.String())
	assert.Empty(t, output.NewTable().String())

	kv := output.NewTable()
	kv.AddRow("account", "bob.near")
	kv.AddRow("network")
	assert.Equal(t, "account  bob.near\nnetwork\n", kv.String())
}
