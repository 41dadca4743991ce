// Package metrics provides Prometheus metrics for the decklist companion.
// They are recorded unconditionally; set metrics_addr in the config to
// expose them over HTTP for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog metrics
	CatalogCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "decklist_catalog_cards",
			Help: "Number of unique card names in the loaded catalog",
		},
	)

	CatalogRecordsDropped = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "decklist_catalog_records_dropped",
			Help: "Records dropped during the last catalog decode",
		},
	)

	CatalogDownloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decklist_catalog_download_bytes_total",
			Help: "Total bytes downloaded from the bulk data endpoint",
		},
	)

	CatalogFilesPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "decklist_catalog_files_pruned_total",
			Help: "Old catalog files deleted by retention pruning",
		},
	)

	// Pipeline metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decklist_stage_duration_seconds",
			Help:    "Time taken by each background pipeline stage",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	StageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decklist_stage_failures_total",
			Help: "Pipeline stages that completed with an error",
		},
		[]string{"stage"},
	)

	// Result metrics
	MissingCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "decklist_missing_cards",
			Help: "Total quantity of cards missing from the collection",
		},
	)

	MissingValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "decklist_missing_value",
			Help: "Aggregate market price of the missing cards",
		},
		[]string{"currency"},
	)
)

// Serve exposes /metrics on addr. It blocks, so run it in a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
