package hintdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const collectTimeout = 5 * time.Second

// StoreCollector exposes hint store statistics to prometheus, gathered
// on scrape. Registration is optional; the store works without it.
type StoreCollector struct {
	store *HintStore

	records   *prometheus.Desc
	poolOpen  *prometheus.Desc
	poolInUse *prometheus.Desc
	poolIdle  *prometheus.Desc
}

func NewStoreCollector(store *HintStore) *StoreCollector {
	return &StoreCollector{
		store: store,

		records: prometheus.NewDesc(
			"hintdb_records_total",
			"Total number of stored hint records",
			nil, nil,
		),
		poolOpen: prometheus.NewDesc(
			"hintdb_pool_open_connections",
			"Open connections per pool",
			[]string{"pool"}, nil,
		),
		poolInUse: prometheus.NewDesc(
			"hintdb_pool_in_use_connections",
			"Connections currently in use per pool",
			[]string{"pool"}, nil,
		),
		poolIdle: prometheus.NewDesc(
			"hintdb_pool_idle_connections",
			"Idle connections per pool",
			[]string{"pool"}, nil,
		),
	}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.records
	ch <- c.poolOpen
	ch <- c.poolInUse
	ch <- c.poolIdle
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	if count, err := c.store.Count(ctx); err == nil {
		ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(count))
	}

	writer, readers := c.store.db.Stats()
	for _, pool := range []struct {
		name  string
		stats sql.DBStats
	}{
		{"writer", writer},
		{"readers", readers},
	} {
		ch <- prometheus.MustNewConstMetric(c.poolOpen, prometheus.GaugeValue, float64(pool.stats.OpenConnections), pool.name)
		ch <- prometheus.MustNewConstMetric(c.poolInUse, prometheus.GaugeValue, float64(pool.stats.InUse), pool.name)
		ch <- prometheus.MustNewConstMetric(c.poolIdle, prometheus.GaugeValue, float64(pool.stats.Idle), pool.name)
	}
}

var _ prometheus.Collector = (*StoreCollector)(nil)
