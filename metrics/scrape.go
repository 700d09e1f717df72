package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_upstream_requests_total",
			Help: "Requests issued against the upstream catalog API.",
		},
		[]string{"store", "outcome"},
	)
	productsUpsertedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_products_upserted_total",
			Help: "Product rows written, labeled added/updated/unchanged.",
		},
		[]string{"store", "outcome"},
	)
	priceHistoryRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_price_history_rows_total",
			Help: "Price history ledger entries appended.",
		},
		[]string{"store"},
	)
	batchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_batch_duration_seconds",
			Help:    "Wall clock time of one batch invocation.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16},
		},
		[]string{"store"},
	)
)

func init() {
	prometheus.MustRegister(upstreamRequestsTotal)
	prometheus.MustRegister(productsUpsertedTotal)
	prometheus.MustRegister(priceHistoryRowsTotal)
	prometheus.MustRegister(batchDuration)
}

func RecordUpstreamRequest(store, outcome string) {
	upstreamRequestsTotal.WithLabelValues(store, outcome).Inc()
}

func RecordUpsert(store, outcome string) {
	productsUpsertedTotal.WithLabelValues(store, outcome).Inc()
}

func RecordHistoryRow(store string) {
	priceHistoryRowsTotal.WithLabelValues(store).Inc()
}

func RecordBatchDuration(store string, d time.Duration) {
	batchDuration.WithLabelValues(store).Observe(d.Seconds())
}
