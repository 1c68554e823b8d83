// Package metrics provides application-level metrics collection.
// Counters are plain atomics so hot paths stay cheap; Collector exports
// them to Prometheus when a registry is wired in.
package metrics

import (
	"sync/atomic"
	"time"
)

// Chain operations tracked per call.
const (
	OpSignIn       = "signIn"
	OpGetAccounts  = "getAccounts"
	OpGetSignature = "getSignature"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Session lifecycle
	connectAttempts atomic.Int64
	connectErrors   atomic.Int64
	signIns         atomic.Int64
	signOuts        atomic.Int64
	restoresOK      atomic.Int64
	restoresDropped atomic.Int64
	networkSwitches atomic.Int64

	// Plugin chain
	chainCalls        atomic.Int64
	chainFallthroughs atomic.Int64
	chainRejections   atomic.Int64
	chainExhausted    atomic.Int64

	// Event bus
	handlerCalls    atomic.Int64
	handlerFailures atomic.Int64

	// Relay transport
	relayRequests     atomic.Int64
	relayErrors       atomic.Int64
	relayLatencyNanos atomic.Int64

	// Session store
	storeErrors  atomic.Int64
	storeCorrupt atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordConnect records a connect attempt and whether it failed.
func (m *Metrics) RecordConnect(err error) {
	m.connectAttempts.Add(1)
	if err != nil {
		m.connectErrors.Add(1)
	}
}

// RecordSignIn records a fresh sign-in.
func (m *Metrics) RecordSignIn() { m.signIns.Add(1) }

// RecordSignOut records a sign-out.
func (m *Metrics) RecordSignOut() { m.signOuts.Add(1) }

// RecordRestore records a startup restore; ok is false when the stored
// session was dropped.
func (m *Metrics) RecordRestore(ok bool) {
	if ok {
		m.restoresOK.Add(1)
		return
	}
	m.restoresDropped.Add(1)
}

// RecordNetworkSwitch records a change of network selection.
func (m *Metrics) RecordNetworkSwitch() { m.networkSwitches.Add(1) }

// RecordChainStep records one plugin answering a chain operation.
func (m *Metrics) RecordChainStep(fellThrough, rejected bool) {
	m.chainCalls.Add(1)
	switch {
	case fellThrough:
		m.chainFallthroughs.Add(1)
	case rejected:
		m.chainRejections.Add(1)
	}
}

// RecordChainExhausted records a traversal where every plugin fell through.
func (m *Metrics) RecordChainExhausted() { m.chainExhausted.Add(1) }

// RecordHandler records one event handler invocation.
func (m *Metrics) RecordHandler(failed bool) {
	m.handlerCalls.Add(1)
	if failed {
		m.handlerFailures.Add(1)
	}
}

// RecordRelayRequest records a relay round trip with its duration.
func (m *Metrics) RecordRelayRequest(duration time.Duration, err error) {
	m.relayRequests.Add(1)
	m.relayLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.relayErrors.Add(1)
	}
}

// RecordStoreError records a failed session store operation.
func (m *Metrics) RecordStoreError() { m.storeErrors.Add(1) }

// RecordStoreCorrupt records unreadable stored session data.
func (m *Metrics) RecordStoreCorrupt() { m.storeCorrupt.Add(1) }

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	ConnectAttempts   int64
	ConnectErrors     int64
	SignIns           int64
	SignOuts          int64
	RestoresOK        int64
	RestoresDropped   int64
	NetworkSwitches   int64
	ChainCalls        int64
	ChainFallthroughs int64
	ChainRejections   int64
	ChainExhausted    int64
	HandlerCalls      int64
	HandlerFailures   int64
	RelayRequests     int64
	RelayErrors       int64
	RelayLatencyNanos int64
	StoreErrors       int64
	StoreCorrupt      int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ConnectAttempts:   m.connectAttempts.Load(),
		ConnectErrors:     m.connectErrors.Load(),
		SignIns:           m.signIns.Load(),
		SignOuts:          m.signOuts.Load(),
		RestoresOK:        m.restoresOK.Load(),
		RestoresDropped:   m.restoresDropped.Load(),
		NetworkSwitches:   m.networkSwitches.Load(),
		ChainCalls:        m.chainCalls.Load(),
		ChainFallthroughs: m.chainFallthroughs.Load(),
		ChainRejections:   m.chainRejections.Load(),
		ChainExhausted:    m.chainExhausted.Load(),
		HandlerCalls:      m.handlerCalls.Load(),
		HandlerFailures:   m.handlerFailures.Load(),
		RelayRequests:     m.relayRequests.Load(),
		RelayErrors:       m.relayErrors.Load(),
		RelayLatencyNanos: m.relayLatencyNanos.Load(),
		StoreErrors:       m.storeErrors.Load(),
		StoreCorrupt:      m.storeCorrupt.Load(),
	}
}

// RelayLatencyAvgMs returns the average relay latency in milliseconds.
// Returns 0 if no requests have been made.
func (m *Metrics) RelayLatencyAvgMs() float64 {
	calls := m.relayRequests.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.relayLatencyNanos.Load()) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.connectAttempts.Store(0)
	m.connectErrors.Store(0)
	m.signIns.Store(0)
	m.signOuts.Store(0)
	m.restoresOK.Store(0)
	m.restoresDropped.Store(0)
	m.networkSwitches.Store(0)
	m.chainCalls.Store(0)
	m.chainFallthroughs.Store(0)
	m.chainRejections.Store(0)
	m.chainExhausted.Store(0)
	m.handlerCalls.Store(0)
	m.handlerFailures.Store(0)
	m.relayRequests.Store(0)
	m.relayErrors.Store(0)
	m.relayLatencyNanos.Store(0)
	m.storeErrors.Store(0)
	m.storeCorrupt.Store(0)
}
