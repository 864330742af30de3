// Package metrics provides Prometheus-based metrics recording for the
// assistant's turn processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records turn, tool, and LLM metrics. Each Recorder owns its own
// registry so tests can create instances freely.
type Recorder struct {
	registry        *prometheus.Registry
	turnsTotal      *prometheus.CounterVec
	toolExecsTotal  *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
	flowTransitions *prometheus.CounterVec
	approvalsTotal  prometheus.Counter
	llmDuration     *prometheus.HistogramVec
	turnDuration    *prometheus.HistogramVec
}

// NewRecorder creates a metrics recorder with a fresh registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_turns_total",
				Help: "Total number of processed turns by route and status",
			},
			[]string{"route", "status"},
		),
		toolExecsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_tool_executions_total",
				Help: "Total number of tool executions by tool and status",
			},
			[]string{"tool", "status"},
		),
		cacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_response_cache_total",
				Help: "Response cache lookups by outcome (hit, miss, skip)",
			},
			[]string{"outcome"},
		),
		flowTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_flow_transitions_total",
				Help: "Guided flow step transitions by flow and step",
			},
			[]string{"flow", "step"},
		),
		approvalsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "assistant_approval_requests_total",
				Help: "Total number of advisory review requests raised",
			},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_llm_request_duration_seconds",
				Help:    "Duration of LLM completion requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"model", "status"},
		),
		turnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "assistant_turn_duration_seconds",
				Help:    "End-to-end turn processing duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveTurn records one completed turn.
func (r *Recorder) ObserveTurn(route string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	r.turnsTotal.WithLabelValues(route, status).Inc()
	r.turnDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// ObserveToolExec records one tool execution.
func (r *Recorder) ObserveToolExec(tool string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	r.toolExecsTotal.WithLabelValues(tool, status).Inc()
}

// ObserveCache records a response cache lookup outcome.
func (r *Recorder) ObserveCache(outcome string) {
	r.cacheTotal.WithLabelValues(outcome).Inc()
}

// ObserveFlowTransition records a guided flow step change.
func (r *Recorder) ObserveFlowTransition(flow, step string) {
	r.flowTransitions.WithLabelValues(flow, step).Inc()
}

// IncApprovals records a raised review request.
func (r *Recorder) IncApprovals() {
	r.approvalsTotal.Inc()
}

// ObserveLLMRequest records one LLM completion round trip.
func (r *Recorder) ObserveLLMRequest(model string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	r.llmDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}
