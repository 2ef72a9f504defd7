package reports

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var metrics = []prometheus.Collector{
	reportTriggerCount,
	reportGeneratedCount,
}

// RegisterMetrics registers all report metrics with the default
// Prometheus registry.
func RegisterMetrics() error {
	for _, c := range metrics {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("could not register %s with Prometheus", c)
		}
	}

	return nil
}

// UnregisterMetrics unregisters all report metrics.
func UnregisterMetrics() bool {
	for _, c := range metrics {
		if ok := prometheus.Unregister(c); !ok {
			return false
		}
	}

	return true
}

var reportTriggerCount = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "report_requests_published_total",
		Help: "How many monthly report requests have been published.",
	},
)

var reportGeneratedCount = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "How many monthly reports have been generated.",
	},
)
