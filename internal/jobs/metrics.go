package jobs

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var metrics = []prometheus.Collector{
	materializedCount,
	materializeErrorCount,
}

// RegisterMetrics registers all job metrics with the default
// Prometheus registry.
func RegisterMetrics() error {
	for _, c := range metrics {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("could not register %s with Prometheus", c)
		}
	}

	return nil
}

// UnregisterMetrics unregisters all job metrics.
//
// This is needed to cleanly exit.
func UnregisterMetrics() bool {
	for _, c := range metrics {
		if ok := prometheus.Unregister(c); !ok {
			return false
		}
	}

	return true
}

var materializedCount = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "recurring_expenses_materialized_total",
		Help: "How many expenses have been created from recurring originals.",
	},
)

var materializeErrorCount = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "recurring_expenses_materialize_errors_total",
		Help: "How many recurring originals could not be materialized.",
	},
)
