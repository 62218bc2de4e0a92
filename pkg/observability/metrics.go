package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/skein/pkg/domain"
	"github.com/aretw0/skein/pkg/worker"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	registry   *prometheus.Registry
	tokens     *prometheus.CounterVec
	modelCalls *prometheus.CounterVec
	toolRuns   prometheus.Counter
	messages   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skein_tokens_total",
				Help: "Tokens consumed, by model and direction.",
			},
			[]string{"model", "direction"},
		),
		modelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skein_model_calls_total",
				Help: "Model calls, by model.",
			},
			[]string{"model"},
		),
		toolRuns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "skein_tool_runs_total",
				Help: "Tool runs started.",
			},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "skein_messages_total",
				Help: "Messages produced, by role.",
			},
			[]string{"role"},
		),
	}
	m.registry.MustRegister(m.tokens, m.modelCalls, m.toolRuns, m.messages)
	return m
}

// Handler exposes the collectors for a /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Wrap decorates an event sink so every run passing through it is
// counted. The wrapped sink sees the unmodified traffic.
func (m *Metrics) Wrap(next worker.Events) worker.Events {
	return &countingEvents{next: next, metrics: m}
}

type countingEvents struct {
	next    worker.Events
	metrics *Metrics
}

func (c *countingEvents) Notify(n domain.Notification) {
	if n.Type == domain.NotifyToolStart {
		c.metrics.toolRuns.Inc()
	}
	c.next.Notify(n)
}

func (c *countingEvents) RecordUsage(model string, usage domain.TokenUsage) {
	c.metrics.modelCalls.WithLabelValues(model).Inc()
	c.metrics.tokens.WithLabelValues(model, "input").Add(float64(usage.Input))
	c.metrics.tokens.WithLabelValues(model, "output").Add(float64(usage.Output))
	if usage.Reasoning > 0 {
		c.metrics.tokens.WithLabelValues(model, "reasoning").Add(float64(usage.Reasoning))
	}
	if usage.CacheRead > 0 {
		c.metrics.tokens.WithLabelValues(model, "cache_read").Add(float64(usage.CacheRead))
	}
	c.next.RecordUsage(model, usage)
}

func (c *countingEvents) Message(msg *domain.Message) {
	c.metrics.messages.WithLabelValues(string(msg.Role)).Inc()
	c.next.Message(msg)
}
