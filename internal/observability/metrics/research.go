// Package metrics exposes Prometheus instrumentation for the research pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	obserrors "github.com/target/veille-api/internal/observability/errors"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// ModelOverride labels engine calls that run a model other than the configured default.
const ModelOverride = "override"

// ModelLabel maps a requested model onto a bounded label value.
func ModelLabel(model, defaultModel string) string {
	if model == defaultModel {
		return model
	}
	return ModelOverride
}

// ResearchMetric captures one research job outcome.
type ResearchMetric struct {
	Model    string
	Duration time.Duration
	Err      error
}

// Recorder records research pipeline metrics. The zero value and a nil *Prom are no-ops.
type Recorder interface {
	ObserveResearch(in ResearchMetric)
	ObserveEngineCall(model string, d time.Duration, err error)
	IncArtifactsDeleted()
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Noop implements Recorder without emitting anything.
type Noop struct{}

func (Noop) ObserveResearch(ResearchMetric)                    {}
func (Noop) ObserveEngineCall(string, time.Duration, error)    {}
func (Noop) IncArtifactsDeleted()                              {}
func (Noop) ObserveRequest(string, string, int, time.Duration) {}

// Prom implements Recorder backed by a dedicated Prometheus registry.
type Prom struct {
	registry         *prometheus.Registry
	researchJobs     *prometheus.CounterVec
	researchDuration *prometheus.HistogramVec
	engineDuration   *prometheus.HistogramVec
	artifactsDeleted prometheus.Counter
	httpRequests     *prometheus.HistogramVec
}

var _ Recorder = (*Prom)(nil)

// NewProm builds the collectors under namespace and registers them, plus Go and process
// collectors, on a fresh registry.
func NewProm(namespace string) *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		researchJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "research_jobs_total",
			Help:      "Research jobs by result and error class",
		}, []string{"result", "error_class"}),
		researchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "research_job_duration_seconds",
			Help:      "End-to-end research job duration by result",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}, []string{"result"}),
		engineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_call_duration_seconds",
			Help:      "Research engine call duration by model and result",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}, []string{"model", "result"}),
		artifactsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_deleted_total",
			Help:      "Research jobs whose artifacts were deleted",
		}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method, route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	p.registry.MustRegister(
		p.researchJobs,
		p.researchDuration,
		p.engineDuration,
		p.artifactsDeleted,
		p.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry exposes the underlying registry for gathering.
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// ObserveResearch records a research job outcome.
func (p *Prom) ObserveResearch(in ResearchMetric) {
	if p == nil {
		return
	}
	result, class := outcome(in.Err)
	p.researchJobs.WithLabelValues(result, class).Inc()
	if in.Duration > 0 {
		p.researchDuration.WithLabelValues(result).Observe(in.Duration.Seconds())
	}
}

// ObserveEngineCall records the duration of one engine call. Callers pass a ModelLabel value.
func (p *Prom) ObserveEngineCall(model string, d time.Duration, err error) {
	if p == nil {
		return
	}
	result, _ := outcome(err)
	p.engineDuration.WithLabelValues(model, result).Observe(d.Seconds())
}

// IncArtifactsDeleted counts a successful deletion.
func (p *Prom) IncArtifactsDeleted() {
	if p == nil {
		return
	}
	p.artifactsDeleted.Inc()
}

// ObserveRequest records one served HTTP request. Route should be the matched pattern.
func (p *Prom) ObserveRequest(method, route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func outcome(err error) (result, class string) {
	if err == nil {
		return ResultSuccess, ""
	}
	return ResultError, obserrors.Classify(err)
}
