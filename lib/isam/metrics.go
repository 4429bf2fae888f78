package isam

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

var (
	schemaUpdates       = metrics.NewCounter("isam_schema_updates_total")
	engineErrors        = metrics.NewCounter("isam_engine_errors_total")
	openCursors         = metrics.NewCounter("isam_open_cursors")
	transactionCommits  = metrics.NewCounter(`isam_transactions_total{result="commit"}`)
	transactionRollback = metrics.NewCounter(`isam_transactions_total{result="rollback"}`)
)

// WriteMetrics writes all counters of this package in Prometheus text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
