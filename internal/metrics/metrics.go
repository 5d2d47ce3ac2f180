package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Skip reasons
const (
	ReasonUnrecognized = "unrecognized"
	ReasonDate         = "date"
)

// Geo lookup results
const (
	ResultResolved = "resolved"
	ResultUnknown  = "unknown"
)

// Metrics holds the collectors for one run on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	LinesScanned prometheus.Counter
	Attempts     *prometheus.CounterVec
	LinesSkipped *prometheus.CounterVec
	GeoLookups   *prometheus.CounterVec
	LastRun      prometheus.Gauge
}

// New creates and registers the run collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LinesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authviz_lines_scanned_total",
			Help: "Total number of log lines read",
		}),
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authviz_attempts_total",
			Help: "Failed login attempts collected, by matched pattern",
		}, []string{"pattern"}),
		LinesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authviz_lines_skipped_total",
			Help: "Log lines not turned into attempts, by reason",
		}, []string{"reason"}),
		GeoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authviz_geo_lookups_total",
			Help: "Country lookups for collected attempts, by result",
		}, []string{"result"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "authviz_last_run_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		}),
	}

	m.Registry.MustRegister(m.LinesScanned, m.Attempts, m.LinesSkipped, m.GeoLookups, m.LastRun)
	return m
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
