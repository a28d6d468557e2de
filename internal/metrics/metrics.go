// Package metrics exposes editcheck's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricsNamespace          = "editcheck"
	MetricsSubsystemResolver  = "resolver"
	MetricsSubsystemAssistant = "assistant"
	MetricsSubsystemGRPC      = "grpc"
)

// Resolution outcomes.
const (
	OutcomeMatched   = "matched"
	OutcomeNoMatch   = "no_match"
	OutcomeEmptyForm = "empty_form"
	OutcomeError     = "error"
)

type Metrics interface {
	GetRegistry() *prometheus.Registry
	Handler() http.Handler

	ObserveResolution(outcome string, candidates int)
	IncrementCollaboratorFailures(kind string)
	ObserveGRPCRequest(method, code string, elapsed float64)
}

type metrics struct {
	registry *prometheus.Registry

	resolutionsTotal     *prometheus.CounterVec
	candidateFiles       prometheus.Histogram
	collaboratorFailures *prometheus.CounterVec
	grpcTime             *prometheus.HistogramVec
}

// NewMetrics creates a collector set on its own registry.
func NewMetrics() Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
		Namespace: MetricsNamespace,
	}))
	m.registry.MustRegister(collectors.NewGoCollector())

	m.resolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemResolver,
		Name:      "resolutions_total",
		Help:      "The total number of rule resolutions by outcome.",
	}, []string{"outcome"})
	m.registry.MustRegister(m.resolutionsTotal)

	m.candidateFiles = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemResolver,
		Name:      "candidate_files",
		Help:      "Candidate rule files considered per resolution.",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})
	m.registry.MustRegister(m.candidateFiles)

	m.collaboratorFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemAssistant,
		Name:      "failures_total",
		Help:      "The total number of collaborator failures by kind.",
	}, []string{"kind"})
	m.registry.MustRegister(m.collaboratorFailures)

	m.grpcTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemGRPC,
		Name:      "time_seconds",
		Help:      "Time to execute the gRPC handler",
	}, []string{"method", "code"})
	m.registry.MustRegister(m.grpcTime)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *metrics) ObserveResolution(outcome string, candidates int) {
	if m != nil {
		m.resolutionsTotal.With(prometheus.Labels{"outcome": outcome}).Inc()
		m.candidateFiles.Observe(float64(candidates))
	}
}

func (m *metrics) IncrementCollaboratorFailures(kind string) {
	if m != nil {
		m.collaboratorFailures.With(prometheus.Labels{"kind": kind}).Inc()
	}
}

func (m *metrics) ObserveGRPCRequest(method, code string, elapsed float64) {
	if m != nil {
		m.grpcTime.With(prometheus.Labels{"method": method, "code": code}).Observe(elapsed)
	}
}
