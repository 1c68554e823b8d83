package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelayDown = errors.New("relay down")

func TestMetrics_RecordConnect(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordConnect(nil)
	m.RecordConnect(errRelayDown)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.ConnectAttempts)
	assert.Equal(t, int64(1), snap.ConnectErrors)
}

func TestMetrics_RecordRestore(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRestore(true)
	m.RecordRestore(false)
	m.RecordRestore(false)

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.RestoresOK)
	assert.Equal(t, int64(2), snap.RestoresDropped)
}

func TestMetrics_RecordChainStep(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordChainStep(true, false)
	m.RecordChainStep(true, false)
	m.RecordChainStep(false, true)
	m.RecordChainStep(false, false)
	m.RecordChainExhausted()

	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap.ChainCalls)
	assert.Equal(t, int64(2), snap.ChainFallthroughs)
	assert.Equal(t, int64(1), snap.ChainRejections)
	assert.Equal(t, int64(1), snap.ChainExhausted)
}

func TestMetrics_RecordHandler(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordHandler(false)
	m.RecordHandler(true)

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.HandlerCalls)
	assert.Equal(t, int64(1), snap.HandlerFailures)
}

func TestMetrics_RelayLatencyAvg(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	// No calls
	assert.InDelta(t, 0.0, m.RelayLatencyAvgMs(), 0.001)

	// Two calls: 100ms and 200ms = 150ms avg
	m.RecordRelayRequest(100*time.Millisecond, nil)
	m.RecordRelayRequest(200*time.Millisecond, errRelayDown)

	assert.InDelta(t, 150.0, m.RelayLatencyAvgMs(), 1.0)
	assert.Equal(t, int64(1), m.Snapshot().RelayErrors)
}

func TestMetrics_Reset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordSignIn()
	m.RecordSignOut()
	m.RecordNetworkSwitch()
	m.RecordStoreError()
	m.RecordStoreCorrupt()

	m.Reset()

	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestCollector(t *testing.T) {
	t.Parallel()
	m := &Metrics{}
	m.RecordSignIn()
	m.RecordSignIn()
	m.RecordChainExhausted()

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector(m)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 18)

	values := make(map[string]float64, len(families))
	for _, mf := range families {
		require.Len(t, mf.GetMetric(), 1)
		values[mf.GetName()] = mf.GetMetric()[0].GetCounter().GetValue()
	}
	assert.InDelta(t, 2.0, values["nearconnect_sign_ins_total"], 0.001)
	assert.InDelta(t, 1.0, values["nearconnect_chain_exhausted_total"], 0.001)
	assert.InDelta(t, 0.0, values["nearconnect_sign_outs_total"], 0.001)
}

func TestGlobal(t *testing.T) {
	// Test that Global is initialized
	assert.NotNil(t, Global)

	// Reset to not affect other tests
	Global.Reset()
}
