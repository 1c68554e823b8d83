package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/near"
	"github.com/mrz1836/nearconnect/internal/storage"
)

var errBackendDown = errors.New("backend down")

// failingKV fails every operation selected by its flags.
type failingKV struct {
	storage.KV

	failGet, failSet, failDelete bool
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errBackendDown
	}
	return f.KV.Get(ctx, key)
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errBackendDown
	}
	return f.KV.Set(ctx, key, value)
}

func (f *failingKV) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errBackendDown
	}
	return f.KV.Delete(ctx, key)
}

func testSession() *Session {
	return &Session{
		AccountID: "alice.testnet",
		PublicKey: "ed25519:6E8sCci9badyRkXb3JoRpBj5p8C6Tw41ELDZoiihKEtp",
		Network:   near.Testnet,
		Proof:     json.RawMessage(`{"signature":"c2ln"}`),
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewStore(storage.NewMemory(), nil, &metrics.Metrics{})

	want := testSession()
	require.NoError(t, st.Save(ctx, want))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_RoundTripWithoutProof(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewStore(storage.NewMemory(), nil, &metrics.Metrics{})

	want := testSession()
	want.Proof = nil
	require.NoError(t, st.Save(ctx, want))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_RecordLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := storage.NewMemory()
	st := NewStore(kv, nil, &metrics.Metrics{})
	require.NoError(t, st.Save(ctx, testSession()))

	raw, err := kv.Get(ctx, StateKey)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, k := range []string{"accountId", "publicKey", "network", "proof", "createdAt"} {
		assert.Contains(t, fields, k)
	}
	assert.JSONEq(t, `"testnet"`, string(fields["network"]))
}

func TestStore_LoadEmpty(t *testing.T) {
	t.Parallel()
	st := NewStore(storage.NewMemory(), nil, &metrics.Metrics{})

	got, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_LastWriterWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st := NewStore(storage.NewMemory(), nil, &metrics.Metrics{})

	first := testSession()
	second := testSession()
	second.AccountID = "bob.near"
	second.Network = near.Mainnet

	require.NoError(t, st.Save(ctx, first))
	require.NoError(t, st.Save(ctx, second))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bob.near", got.AccountID)
}

func TestStore_CorruptRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"wrong type", `["alice.testnet"]`},
		{"missing account", `{"publicKey":"ed25519:x","network":"testnet"}`},
		{"missing key", `{"accountId":"alice.testnet","network":"testnet"}`},
		{"bad network", `{"accountId":"alice.testnet","publicKey":"ed25519:x","network":"betanet"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			kv := storage.NewMemory()
			require.NoError(t, kv.Set(ctx, StateKey, []byte(tt.data)))

			var buf bytes.Buffer
			m := &metrics.Metrics{}
			st := NewStore(kv, config.NewWriterLogger(config.LogLevelError, &buf), m)

			got, err := st.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)

			_, err = kv.Get(ctx, StateKey)
			require.ErrorIs(t, err, storage.ErrNotFound)
			assert.Equal(t, int64(1), m.Snapshot().StoreCorrupt)
			assert.Contains(t, buf.String(), "stored session is corrupted")
		})
	}
}

func TestStore_UndecryptableIsCorrupt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	inner := storage.NewMemory()

	writer := storage.NewEncrypted(inner, "first passphrase")
	writer.SetWorkFactor(10)
	require.NoError(t, NewStore(writer, nil, &metrics.Metrics{}).Save(ctx, testSession()))

	reader := storage.NewEncrypted(inner, "second passphrase")
	reader.SetWorkFactor(10)
	got, err := NewStore(reader, nil, &metrics.Metrics{}).Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, inner.Len())
}

func TestStore_BackendErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := &metrics.Metrics{}
	kv := &failingKV{KV: storage.NewMemory(), failGet: true, failSet: true, failDelete: true}
	st := NewStore(kv, nil, m)

	_, err := st.Load(ctx)
	require.ErrorIs(t, err, errBackendDown)
	require.ErrorIs(t, st.Save(ctx, testSession()), errBackendDown)
	require.ErrorIs(t, st.Clear(ctx), errBackendDown)
	assert.Equal(t, int64(3), m.Snapshot().StoreErrors)
}

func TestStore_SaveNilClears(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := storage.NewMemory()
	st := NewStore(kv, nil, &metrics.Metrics{})

	require.NoError(t, st.Save(ctx, testSession()))
	require.NoError(t, st.Save(ctx, nil))
	assert.Equal(t, 0, kv.Len())
	require.NoError(t, st.Clear(ctx))
}

func TestState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
}
