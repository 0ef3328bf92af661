package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/eqverify/internal/model"
)

// Run holds the metrics of one run in a private registry, written out as a
// node_exporter textfile when the run ends
type Run struct {
	registry     *prometheus.Registry
	statements   *prometheus.CounterVec
	proofSeconds *prometheus.HistogramVec
	catalogs     *prometheus.CounterVec
	cacheHits    prometheus.Gauge
	cacheMisses  prometheus.Gauge
	incomplete   prometheus.Gauge
}

// NewRun creates the collectors of one run
func NewRun() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eqverify",
			Name:      "statements_total",
			Help:      "Statements verified, by catalog and outcome.",
		}, []string{"catalog", "outcome"}),
		proofSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "eqverify",
			Name:      "proof_duration_seconds",
			Help:      "Time spent proving one statement.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"outcome"}),
		catalogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eqverify",
			Name:      "catalogs_total",
			Help:      "Catalogs processed, by status.",
		}, []string{"status"}),
		cacheHits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eqverify",
			Name:      "cache_hits",
			Help:      "Verdicts served from the in-process cache.",
		}),
		cacheMisses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eqverify",
			Name:      "cache_misses",
			Help:      "Cache lookups that required a proof.",
		}),
		incomplete: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eqverify",
			Name:      "run_incomplete",
			Help:      "1 when the run was canceled before all statements finished.",
		}),
	}
	r.registry.MustRegister(r.statements, r.proofSeconds, r.catalogs, r.cacheHits, r.cacheMisses, r.incomplete)
	return r
}

// ObserveResult records one verdict and the time it took
func (r *Run) ObserveResult(catalog string, res model.VerificationResult, elapsed time.Duration) {
	r.statements.WithLabelValues(catalog, string(res.Outcome)).Inc()
	if !res.Cached {
		r.proofSeconds.WithLabelValues(string(res.Outcome)).Observe(elapsed.Seconds())
	}
}

// ObserveReport records a finished catalog
func (r *Run) ObserveReport(report *model.Report) {
	status := "complete"
	if !report.Complete {
		status = "incomplete"
		r.incomplete.Set(1)
	}
	r.catalogs.WithLabelValues(status).Inc()
}

// ObserveFailure records a catalog that could not be loaded or verified
func (r *Run) ObserveFailure() {
	r.catalogs.WithLabelValues("failed").Inc()
}

// SetCacheStats records the cache counters
func (r *Run) SetCacheStats(hits, misses uint64) {
	r.cacheHits.Set(float64(hits))
	r.cacheMisses.Set(float64(misses))
}

// Gatherer exposes the registry
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the metrics in text exposition format
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
