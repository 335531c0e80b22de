// Package promhooks counts nvcache events with Prometheus metrics.
package promhooks

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/nvcache"
)

// Hooks holds one counter vector per event, labeled by table. Setting names
// are not used as labels to keep cardinality bounded.
type Hooks struct {
	lookups          *prometheus.CounterVec // table, result
	invalidations    *prometheus.CounterVec // table
	fastPathFallback *prometheus.CounterVec // table
	remoteErrors     *prometheus.CounterVec // table, op
	versionErrors    *prometheus.CounterVec // table
	entriesDropped   *prometheus.CounterVec // table, reason
	setRejected      *prometheus.CounterVec // table
	tableVersion     *prometheus.GaugeVec   // table
}

var _ nvcache.Hooks = (*Hooks)(nil)

// New creates the metrics under namespace (e.g. "settings") and registers
// them with reg.
func New(reg prometheus.Registerer, namespace string) (*Hooks, error) {
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "nvcache",
			Name:      name,
			Help:      help,
		}, labels)
	}
	h := &Hooks{
		lookups:          counter("lookups_total", "Own-scope reads by result (hit, miss).", "table", "result"),
		invalidations:    counter("invalidations_total", "Full cache clears after a table version change.", "table"),
		fastPathFallback: counter("fast_path_fallbacks_total", "Reads that fell back to a query after a failed call.", "table"),
		remoteErrors:     counter("remote_errors_total", "Remote reads and writes that failed.", "table", "op"),
		versionErrors:    counter("version_read_errors_total", "Failed version counter reads.", "table"),
		entriesDropped:   counter("entries_dropped_total", "Entries deleted on read.", "table", "reason"),
		setRejected:      counter("provider_set_rejected_total", "Entry writes refused by the provider.", "table"),
		tableVersion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "nvcache",
			Name:      "table_version",
			Help:      "Table version the cached entries belong to.",
		}, []string{"table"}),
	}
	for _, c := range []prometheus.Collector{
		h.lookups, h.invalidations, h.fastPathFallback, h.remoteErrors,
		h.versionErrors, h.entriesDropped, h.setRejected, h.tableVersion,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hooks) Invalidated(table string, _, to uint64) {
	h.invalidations.WithLabelValues(table).Inc()
	h.tableVersion.WithLabelValues(table).Set(float64(to))
}

func (h *Hooks) Lookup(table, _ string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	h.lookups.WithLabelValues(table, result).Inc()
}

func (h *Hooks) FastPathFallback(table, _ string, _ error) {
	h.fastPathFallback.WithLabelValues(table).Inc()
}

func (h *Hooks) RemoteReadError(table, _ string, _ error) {
	h.remoteErrors.WithLabelValues(table, "read").Inc()
}

func (h *Hooks) RemoteWriteError(table, _ string, _ error) {
	h.remoteErrors.WithLabelValues(table, "write").Inc()
}

func (h *Hooks) VersionReadError(table string, _ error) {
	h.versionErrors.WithLabelValues(table).Inc()
}

func (h *Hooks) EntryDropped(table, _, reason string) {
	h.entriesDropped.WithLabelValues(table, reason).Inc()
}

func (h *Hooks) ProviderSetRejected(table, _ string) {
	h.setRejected.WithLabelValues(table).Inc()
}
