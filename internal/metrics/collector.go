package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nearconnect"

// Compile-time interface check
var _ prometheus.Collector = (*Collector)(nil)

// Collector exports a Metrics instance as Prometheus counters.
type Collector struct {
	m     *Metrics
	descs []counterDesc
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(Snapshot) float64
}

func newCounter(name, help string, value func(Snapshot) float64) counterDesc {
	return counterDesc{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		value: value,
	}
}

// NewCollector creates a collector reading from m.
func NewCollector(m *Metrics) *Collector {
	return &Collector{
		m: m,
		descs: []counterDesc{
			newCounter("connect_attempts_total", "Connect calls that ran or joined a sign-in.",
				func(s Snapshot) float64 { return float64(s.ConnectAttempts) }),
			newCounter("connect_errors_total", "Connect calls that failed.",
				func(s Snapshot) float64 { return float64(s.ConnectErrors) }),
			newCounter("sign_ins_total", "Fresh sign-ins.",
				func(s Snapshot) float64 { return float64(s.SignIns) }),
			newCounter("sign_outs_total", "Sign-outs.",
				func(s Snapshot) float64 { return float64(s.SignOuts) }),
			newCounter("restores_total", "Stored sessions re-activated at startup.",
				func(s Snapshot) float64 { return float64(s.RestoresOK) }),
			newCounter("restores_dropped_total", "Stored sessions discarded at startup.",
				func(s Snapshot) float64 { return float64(s.RestoresDropped) }),
			newCounter("network_switches_total", "Network selection changes.",
				func(s Snapshot) float64 { return float64(s.NetworkSwitches) }),
			newCounter("chain_steps_total", "Plugin invocations by the chain.",
				func(s Snapshot) float64 { return float64(s.ChainCalls) }),
			newCounter("chain_fallthroughs_total", "Plugin invocations that fell through.",
				func(s Snapshot) float64 { return float64(s.ChainFallthroughs) }),
			newCounter("chain_rejections_total", "Plugin invocations that rejected.",
				func(s Snapshot) float64 { return float64(s.ChainRejections) }),
			newCounter("chain_exhausted_total", "Chain traversals where no plugin handled.",
				func(s Snapshot) float64 { return float64(s.ChainExhausted) }),
			newCounter("event_handlers_total", "Event handler invocations.",
				func(s Snapshot) float64 { return float64(s.HandlerCalls) }),
			newCounter("event_handler_failures_total", "Event handlers that returned an error or panicked.",
				func(s Snapshot) float64 { return float64(s.HandlerFailures) }),
			newCounter("relay_requests_total", "Relay round trips.",
				func(s Snapshot) float64 { return float64(s.RelayRequests) }),
			newCounter("relay_errors_total", "Relay round trips that failed.",
				func(s Snapshot) float64 { return float64(s.RelayErrors) }),
			newCounter("relay_latency_seconds_total", "Cumulative relay latency.",
				func(s Snapshot) float64 { return float64(s.RelayLatencyNanos) / 1e9 }),
			newCounter("store_errors_total", "Failed session store operations.",
				func(s Snapshot) float64 { return float64(s.StoreErrors) }),
			newCounter("store_corrupt_total", "Unreadable stored sessions.",
				func(s Snapshot) float64 { return float64(s.StoreCorrupt) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d.desc
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.m.Snapshot()
	for _, d := range c.descs {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, d.value(snap))
	}
}
