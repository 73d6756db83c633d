// Package metrics exposes pipeline counters in Prometheus format.
package metrics

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/DataTransformer/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "datatransformer"

// Recorder collects per-file and per-batch metrics on its own registry.
// It implements core.Observer.
type Recorder struct {
	registry *prometheus.Registry

	filesProcessed *prometheus.CounterVec
	fileDuration   *prometheus.HistogramVec
	rowsLoaded     prometheus.Counter
	exports        *prometheus.CounterVec
	warnings       *prometheus.CounterVec
	batches        *prometheus.CounterVec
}

var _ core.Observer = (*Recorder)(nil)

// NewRecorder registers all collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files run through the pipeline, by input format and outcome.",
		}, []string{"format", "outcome"}),
		fileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_processing_seconds",
			Help:      "Time spent processing one file.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"format"}),
		rowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Rows in the final tables of successfully processed files.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Export artifacts produced, by output format.",
		}, []string{"format"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Non-fatal problems reported for processed files, by kind.",
		}, []string{"kind"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Upload batches, by result.",
		}, []string{"result"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.filesProcessed,
		r.fileDuration,
		r.rowsLoaded,
		r.exports,
		r.warnings,
		r.batches,
	)
	return r
}

// FileProcessed records the outcome of one file.
func (r *Recorder) FileProcessed(res *core.FileResult) {
	format := inputFormat(res.FileName)

	r.filesProcessed.WithLabelValues(format, core.ErrorKind(res.Err)).Inc()
	r.fileDuration.WithLabelValues(format).Observe(res.Duration.Seconds())

	if res.OK() {
		r.rowsLoaded.Add(float64(res.Rows()))
	}
	if res.Artifact != nil {
		r.exports.WithLabelValues(outputFormat(res.Artifact.FileName)).Inc()
	}
	for _, w := range res.Warnings {
		r.warnings.WithLabelValues(core.ErrorKind(w)).Inc()
	}
}

// BatchProcessed records a finished batch, or a rejected one when err is set.
func (r *Recorder) BatchProcessed(batch *core.BatchResult, err error) {
	switch {
	case err != nil:
		r.batches.WithLabelValues("rejected").Inc()
	case batch.Failed == 0:
		r.batches.WithLabelValues("ok").Inc()
	case batch.Succeeded == 0:
		r.batches.WithLabelValues("failed").Inc()
	default:
		r.batches.WithLabelValues("partial").Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// inputFormat keeps label cardinality bounded: anything unsupported is "other".
func inputFormat(name string) string {
	switch ext := core.FileExt(name); ext {
	case core.ExtCSV, core.ExtXLSX:
		return strings.TrimPrefix(ext, ".")
	default:
		return "other"
	}
}

func outputFormat(name string) string {
	if core.FileExt(name) == core.ExtXLSX {
		return string(core.FormatExcel)
	}
	return string(core.FormatCSV)
}
