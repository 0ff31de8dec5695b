package crawler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry        *prometheus.Registry
	PagesTotal      *prometheus.CounterVec
	RecordsTotal    *prometheus.CounterVec
	AbortsTotal     *prometheus.CounterVec
	UnknownTotals   *prometheus.CounterVec
	UpsertedRows    *prometheus.CounterVec
	BatchFailures   *prometheus.CounterVec
	PageLoadSeconds prometheus.Histogram
	SweepSeconds    prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_pages_total",
			Help: "Listing pages extracted.",
		},
		[]string{"category"},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_records_total",
			Help: "Extracted records by outcome (inserted, malformed, duplicate).",
		},
		[]string{"category", "outcome"},
	)
	aborts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_aborts_total",
			Help: "Sub-category crawls aborted, by cause.",
		},
		[]string{"cause"},
	)
	unknownTotals := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_unknown_totals_total",
			Help: "Sub-category crawls whose item count could not be read.",
		},
		[]string{"category"},
	)
	upserted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_upserted_rows_total",
			Help: "Rows affected by committed batch upserts.",
		},
		[]string{"category"},
	)
	batchFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_batch_failures_total",
			Help: "Batch upserts rolled back.",
		},
		[]string{"category"},
	)
	pageLoad := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_page_load_duration_seconds",
			Help:    "Time spent waiting for a listing page to become ready.",
			Buckets: prometheus.DefBuckets,
		},
	)
	sweep := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crawler_sweep_duration_seconds",
			Help:    "Duration of a full category sweep.",
			Buckets: prometheus.ExponentialBuckets(60, 2, 10),
		},
	)

	registry.MustRegister(pages, records, aborts, unknownTotals, upserted, batchFailures, pageLoad, sweep)

	return &Metrics{
		Registry:        registry,
		PagesTotal:      pages,
		RecordsTotal:    records,
		AbortsTotal:     aborts,
		UnknownTotals:   unknownTotals,
		UpsertedRows:    upserted,
		BatchFailures:   batchFailures,
		PageLoadSeconds: pageLoad,
		SweepSeconds:    sweep,
	}
}

// ObservePage records one extracted page and its per-record outcomes.
func (m *Metrics) ObservePage(category string, inserted, malformed, duplicates int) {
	if m == nil {
		return
	}
	m.PagesTotal.WithLabelValues(category).Inc()
	m.RecordsTotal.WithLabelValues(category, "inserted").Add(float64(inserted))
	m.RecordsTotal.WithLabelValues(category, "malformed").Add(float64(malformed))
	m.RecordsTotal.WithLabelValues(category, "duplicate").Add(float64(duplicates))
}

// ObservePageLoad records how long a page took to become ready.
func (m *Metrics) ObservePageLoad(d time.Duration) {
	if m == nil {
		return
	}
	m.PageLoadSeconds.Observe(d.Seconds())
}

// IncAbort increments the aborts counter for a cause.
func (m *Metrics) IncAbort(cause Cause) {
	if m == nil {
		return
	}
	m.AbortsTotal.WithLabelValues(string(cause)).Inc()
}

// IncUnknownTotal counts a sub-category crawl running without a known total.
func (m *Metrics) IncUnknownTotal(category string) {
	if m == nil {
		return
	}
	m.UnknownTotals.WithLabelValues(category).Inc()
}

// AddUpserted records rows affected by a committed batch.
func (m *Metrics) AddUpserted(category string, rows int64) {
	if m == nil {
		return
	}
	m.UpsertedRows.WithLabelValues(category).Add(float64(rows))
}

// IncBatchFailure counts a rolled back batch.
func (m *Metrics) IncBatchFailure(category string) {
	if m == nil {
		return
	}
	m.BatchFailures.WithLabelValues(category).Inc()
}

// ObserveSweep records a full sweep duration.
func (m *Metrics) ObserveSweep(d time.Duration) {
	if m == nil {
		return
	}
	m.SweepSeconds.Observe(d.Seconds())
}
