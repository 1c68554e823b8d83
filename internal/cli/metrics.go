package cli

import (
	"io"
	"sort"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mrz1836/nearconnect/internal/metrics"
	"github.com/mrz1836/nearconnect/internal/output"
)

// metricsCmd prints the counters collected during this run.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var metricsCmd = &cobra.Command{
	Use:     "metrics",
	Short:   "Print session counters for this run",
	GroupID: "setup",
	Long: `Print the counters recorded while the stored session was restored.
Counters are per process; they start at zero on every run.`,
	RunE: runMetrics,
}

// gatherCounters registers a collector for m and returns the counter values
// keyed by metric name.
func gatherCounters(m *metrics.Metrics) (map[string]float64, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(m)); err != nil {
		return nil, err
	}

	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			values[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}
	return values, nil
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	cc, err := requireApp(cmd)
	if err != nil {
		return err
	}

	values, err := gatherCounters(metricsFor(cc))
	if err != nil {
		return err
	}

	return cc.Fmt.Emit(values, func(w io.Writer) error {
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		sort.Strings(names)

		t := output.NewTable("METRIC", "VALUE")
		for _, name := range names {
			t.AddRow(name, strconv.FormatFloat(values[name], 'f', -1, 64))
		}
		return t.Render(w)
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(metricsCmd)
}
