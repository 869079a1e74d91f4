package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "proxy_deploy"

// Metrics is safe for concurrent use by independent deployments. A nil
// *Metrics records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	deployments     *prometheus.CounterVec
	stepFailures    *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		deployments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deployments_total",
			Help:      "Deployment attempts by outcome.",
		}, []string{"outcome"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Failed deployment steps by stage.",
		}, []string{"stage"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_command_duration_seconds",
			Help:      "Wall time of remote commands including connection setup.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.deployments,
		m.stepFailures,
		m.commandDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) DeploymentFinished(success bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.deployments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) StepFailed(stage string) {
	if m == nil {
		return
	}
	m.stepFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) ObserveCommand(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commandDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}
