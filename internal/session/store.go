package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mrz1836/nearconnect/internal/config"
	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/storage"
	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// Store persists a single session record in a KV backend.
// Concurrent writers follow last-writer-wins.
type Store struct {
	kv      storage.KV
	logger  *config.Logger
	metrics *metrics.Metrics
}

// NewStore creates a store over kv. A nil logger discards output and nil
// metrics records to metrics.Global.
func NewStore(kv storage.KV, logger *config.Logger, m *metrics.Metrics) *Store {
	if m == nil {
		m = metrics.Global
	}
	return &Store{kv: kv, logger: logger, metrics: m}
}

// Save writes s, replacing any previous record.
func (st *Store) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return st.Clear(ctx)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := st.kv.Set(ctx, StateKey, data); err != nil {
		st.metrics.RecordStoreError()
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the stored session, or nil when nothing is stored.
// Unreadable records are treated as absent and removed.
func (st *Store) Load(ctx context.Context) (*Session, error) {
	data, err := st.kv.Get(ctx, StateKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil //nolint:nilnil // absence is a valid state
	case errors.Is(err, storage.ErrDecrypt):
		st.discard(ctx, err)
		return nil, nil //nolint:nilnil // corrupt records are reported as absent
	case err != nil:
		st.metrics.RecordStoreError()
		return nil, fmt.Errorf("loading session: %w", err)
	}

	s, err := decode(data)
	if err != nil {
		st.discard(ctx, err)
		return nil, nil //nolint:nilnil // corrupt records are reported as absent
	}
	return s, nil
}

// Clear removes the stored session. Clearing an empty store succeeds.
func (st *Store) Clear(ctx context.Context) error {
	if err := st.kv.Delete(ctx, StateKey); err != nil {
		st.metrics.RecordStoreError()
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (st *Store) discard(ctx context.Context, cause error) {
	st.metrics.RecordStoreCorrupt()
	st.logger.Error("%v", connerr.WithCause(connerr.ErrStorageCorrupt, cause))
	if err := st.Clear(ctx); err != nil {
		st.logger.Error("removing corrupt session: %v", err)
	}
}

var (
	errMissingAccount = errors.New("missing account id")
	errMissingKey     = errors.New("missing public key")
)

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.AccountID == "" {
		return nil, errMissingAccount
	}
	if s.PublicKey == "" {
		return nil, errMissingKey
	}
	if !s.Network.Valid() {
		return nil, fmt.Errorf("%w: %q", connerr.ErrInvalidNetwork, s.Network)
	}
	if len(s.Proof) == 0 || string(s.Proof) == "null" {
		s.Proof = nil
	}
	return &s, nil
}
