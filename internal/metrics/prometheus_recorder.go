package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "image_styles"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requests      *prom.CounterVec
	generation    *prom.HistogramVec
	batchEntries  *prom.CounterVec
	batchDuration prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them with reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Image requests by resolution outcome",
		}, []string{"outcome"}),
		generation: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Duration of derivative generation",
			Buckets:   prom.DefBuckets,
		}, []string{"style", "result"}),
		batchEntries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "batch_entries_total",
			Help:      "Batch generation entries by result",
		}, []string{"result"}),
		batchDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Total batch generation duration",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.requests, pr.generation, pr.batchEntries, pr.batchDuration)
	return pr
}

func (p *PrometheusRecorder) IncRequest(outcome string) {
	if p == nil {
		return
	}
	p.requests.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObserveGeneration(style string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.generation.WithLabelValues(style, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBatchEntry(result BatchResult) {
	if p == nil {
		return
	}
	p.batchEntries.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBatchDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.batchDuration.Observe(d.Seconds())
}

// HTTPHandler returns an http.Handler that serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
