package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "entries_count",
			Help: "Total ledger entry rows",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM ledger_entries")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "open_fiscal_periods",
			Help: "Fiscal periods accepting postings",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM fiscal_periods WHERE is_closed = FALSE AND is_locked = FALSE")
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
