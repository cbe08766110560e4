package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "erp_ledger_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	postingTotal   *prometheus.CounterVec
	postingLatency *prometheus.HistogramVec

	reversalTotal   *prometheus.CounterVec
	reversalLatency *prometheus.HistogramVec

	voucherNumbersAllocated *prometheus.CounterVec

	balanceQueries prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		postingTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "postings_total",
				Help: "Total posting attempts by result",
			},
			[]string{"result"},
		)
		postingLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "posting_latency_seconds",
				Help:    "Posting latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		reversalTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "reversals_total",
				Help: "Total reversal attempts by result",
			},
			[]string{"result"},
		)
		reversalLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "reversal_latency_seconds",
				Help:    "Reversal latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		voucherNumbersAllocated = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "voucher_numbers_allocated_total",
				Help: "Total pre-display voucher number allocations by prefix",
			},
			[]string{"prefix"},
		)

		balanceQueries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "balance_queries_total",
				Help: "Total account balance queries",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total document export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Document export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			postingTotal,
			postingLatency,
			reversalTotal,
			reversalLatency,
			voucherNumbersAllocated,
			balanceQueries,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObservePosting records posting duration and result.
func ObservePosting(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if postingTotal != nil {
		postingTotal.WithLabelValues(result).Inc()
	}
	if postingLatency != nil {
		postingLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReversal records reversal duration and result.
func ObserveReversal(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if reversalTotal != nil {
		reversalTotal.WithLabelValues(result).Inc()
	}
	if reversalLatency != nil {
		reversalLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncVoucherNumberAllocated increments the pre-display allocation counter.
func IncVoucherNumberAllocated(prefix string) {
	if prefix == "" {
		prefix = "unknown"
	}
	if voucherNumbersAllocated != nil {
		voucherNumbersAllocated.WithLabelValues(prefix).Inc()
	}
}

// IncBalanceQuery increments the balance query counter.
func IncBalanceQuery() {
	if balanceQueries != nil {
		balanceQueries.Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}
