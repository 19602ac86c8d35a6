// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"campaign-wallet/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ledgerRecordTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_record_total",
			Help: "Total number of RecordTransaction calls by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ledgerRecordDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_record_duration_seconds",
			Help:    "Duration of RecordTransaction calls",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"type"},
	)
)

// LedgerRecorder reports ledger outcomes to Prometheus.
type LedgerRecorder struct{}

// NewLedgerRecorder creates a LedgerRecorder.
func NewLedgerRecorder() *LedgerRecorder {
	return &LedgerRecorder{}
}

// ObserveRecord counts one RecordTransaction call. Unknown types share the
// "other" label to keep client input out of the label set.
func (LedgerRecorder) ObserveRecord(txType domain.TransactionType, outcome string, elapsed time.Duration) {
	label := typeLabel(txType)
	ledgerRecordTotal.WithLabelValues(label, outcome).Inc()
	ledgerRecordDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func typeLabel(txType domain.TransactionType) string {
	if txType.Known() {
		return string(txType)
	}
	return "other"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
